// Package synthesis turns curated evidence into a structured profile via a
// single grounded LLM call per run.
package synthesis

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/entity-intel/internal/config"
	"github.com/sells-group/entity-intel/internal/model"
	"github.com/sells-group/entity-intel/pkg/anthropic"
)

// SynthesizedProfile is the loosely-typed synthesis output before
// sanitization.
type SynthesizedProfile struct {
	// Raw is the parsed model output. Nil when parsing failed and the run
	// fell back to raw text.
	Raw      map[string]any
	Overview string
	// FellBack marks the raw-text fallback path: the model's reply was not
	// parseable JSON, so Overview carries the full reply verbatim.
	FellBack bool
	Usage    anthropic.TokenUsage
}

// Client performs grounded synthesis and chat edits.
type Client struct {
	llm         anthropic.Client
	cfg         config.SynthesisConfig
	totalBudget int
}

// NewClient creates a synthesis client. totalBudgetChars bounds the evidence
// text included in the prompt.
func NewClient(llm anthropic.Client, cfg config.SynthesisConfig, totalBudgetChars int) *Client {
	return &Client{llm: llm, cfg: cfg, totalBudget: totalBudgetChars}
}

// Synthesize sends the evidence set and extraction contract to the model.
// One call per run; a provider failure here aborts the run, since there is
// no other source of structured extraction. A parse failure does not: the
// raw reply becomes the overview.
func (c *Client) Synthesize(ctx context.Context, req model.EnrichmentRequest, sources []model.EvidenceSource, socials model.SocialProfileSet) (*SynthesizedProfile, error) {
	payload := buildUserPayload(req, sources, socials, c.totalBudget)

	resp, err := c.complete(ctx, systemPrompt(req.Kind), payload)
	if err != nil {
		return nil, eris.Wrap(err, "synthesis: create message")
	}

	text := responseText(resp)
	usage := resp.Usage
	usage.LogCost(c.cfg.Model, "synthesis")

	raw, ok := parseProfile(text)
	if !ok {
		zap.L().Warn("synthesis output was not valid JSON, falling back to raw text",
			zap.Int("response_chars", len(text)))
		return &SynthesizedProfile{
			Overview: strings.TrimSpace(text),
			FellBack: true,
			Usage:    usage,
		}, nil
	}

	overview, _ := raw["overview"].(string)
	return &SynthesizedProfile{
		Raw:      raw,
		Overview: strings.TrimSpace(overview),
		Usage:    usage,
	}, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (*anthropic.MessageResponse, error) {
	temp := c.cfg.Temperature
	return c.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		System:      system,
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: &temp,
	})
}

// responseText concatenates the text blocks of a response.
func responseText(resp *anthropic.MessageResponse) string {
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}
