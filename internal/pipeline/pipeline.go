// Package pipeline orchestrates one enrichment run: plan, retrieve,
// aggregate, resolve, synthesize, sanitize.
package pipeline

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/entity-intel/internal/config"
	"github.com/sells-group/entity-intel/internal/cost"
	"github.com/sells-group/entity-intel/internal/evidence"
	"github.com/sells-group/entity-intel/internal/model"
	"github.com/sells-group/entity-intel/internal/planner"
	"github.com/sells-group/entity-intel/internal/resolver"
	"github.com/sells-group/entity-intel/internal/retrieval"
	"github.com/sells-group/entity-intel/internal/sanitize"
	"github.com/sells-group/entity-intel/internal/synthesis"
)

// Pipeline wires the enrichment stages together. One instance serves many
// runs; all per-run state lives on the stack.
type Pipeline struct {
	cfg        *config.Config
	executor   *retrieval.Executor
	aggregator *evidence.Aggregator
	validator  *resolver.Validator
	synth      *synthesis.Client
	costCalc   *cost.Calculator
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, executor *retrieval.Executor, validator *resolver.Validator, synth *synthesis.Client) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		executor:   executor,
		aggregator: evidence.New(cfg.Evidence),
		validator:  validator,
		synth:      synth,
		costCalc:   cost.NewCalculator(cfg.Pricing),
	}
}

// Enrich runs the full pipeline for one request. Retrieval failures degrade
// to missing evidence; synthesis and grounding failures abort the run.
func (p *Pipeline) Enrich(ctx context.Context, req model.EnrichmentRequest) (*model.EnrichmentReport, error) {
	if !req.Identified() {
		return nil, ErrInvalidRequest
	}

	runID := uuid.New().String()
	log := zap.L().With(
		zap.String("run_id", runID),
		zap.String("kind", string(req.Kind)),
		zap.String("entity", req.EntityName()),
	)
	log.Info("pipeline: starting enrichment")
	started := time.Now()

	// Plan.
	queries := planner.Plan(req, planner.Caps{
		Person:  p.cfg.Retrieval.PersonQueryCap,
		Company: p.cfg.Retrieval.CompanyQueryCap,
	})
	log.Info("pipeline: planned queries", zap.Int("count", len(queries)))

	// Retrieve.
	batches := p.executor.Execute(ctx, queries, req.Country)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: retrieval cancelled")
	}

	// Resolve the official site and, for companies, crawl it.
	officialURL, officialHost := p.resolveOfficialSite(req, batches, log)
	if req.Kind == model.KindCompany && officialURL != "" {
		crawlQuery := model.Query{Text: req.EntityName(), Intent: model.IntentOfficialSite}
		if pages := p.executor.Crawl(ctx, officialURL, crawlQuery); len(pages) > 0 {
			batches = append(batches, model.Batch{Query: crawlQuery, Results: pages})
			log.Info("pipeline: crawled official site",
				zap.String("seed", officialURL), zap.Int("pages", len(pages)))
		}
	}

	// Person social fallback: when nothing social surfaced in search, ask
	// the answer-engine collaborator before giving up on profile URLs.
	links := evidence.CollectLinks(batches)
	if req.Kind == model.KindPerson && resolver.Resolve(nil, links).Empty() {
		if extra := p.executor.SocialFallback(ctx, req.EntityName(), req.Company); len(extra) > 0 {
			batches = append(batches, model.Batch{
				Query:   model.Query{Text: req.EntityName(), Intent: model.IntentSocial},
				Results: extra,
			})
			links = evidence.CollectLinks(batches)
		}
	}

	// Aggregate.
	sources := p.aggregator.Aggregate(batches, officialHost)
	log.Info("pipeline: aggregated evidence", zap.Int("sources", len(sources)))
	if len(sources) == 0 {
		return nil, ErrInsufficientEvidence
	}

	// Resolve social profiles.
	socials := resolver.Resolve(sources, links)
	if officialURL != "" {
		socials.Website = officialURL
	}

	// Synthesize.
	profile, err := p.synth.Synthesize(ctx, req, sources, socials)
	if err != nil {
		return nil, err
	}

	// Sanitize and gate on grounding.
	report, err := sanitize.Sanitize(profile, req, sources, socials)
	if err != nil {
		return nil, err
	}
	report.RunID = runID
	report.GeneratedAt = time.Now().UTC()

	usage := p.executor.Usage()
	usage.Add(model.Usage{
		LLMInputTokens:  int(profile.Usage.InputTokens),
		LLMOutputTokens: int(profile.Usage.OutputTokens),
	})
	log.Info("pipeline: enrichment complete",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("sources", len(report.Sources)),
		zap.Bool("fallback", profile.FellBack),
		zap.Float64("estimated_cost_usd", p.costCalc.Total(usage, p.cfg.Synthesis.Model)),
	)
	return report, nil
}

// ChatEdit applies an instruction to an existing report under the no-new-facts
// rule.
func (p *Pipeline) ChatEdit(ctx context.Context, currentReport map[string]any, instruction, entityContext string) (map[string]any, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, eris.New("pipeline: empty edit instruction")
	}
	if len(currentReport) == 0 {
		return nil, eris.New("pipeline: empty report to edit")
	}

	updated, usage, err := p.synth.Edit(ctx, currentReport, instruction, entityContext)
	if err != nil {
		return nil, err
	}

	pruned, _ := sanitize.Prune(updated).(map[string]any)
	if pruned == nil {
		return nil, sanitize.ErrUngrounded
	}
	filterEditedSources(pruned, currentReport)
	zap.L().Info("pipeline: chat edit complete",
		zap.Int64("llm_input_tokens", usage.InputTokens),
		zap.Int64("llm_output_tokens", usage.OutputTokens),
	)
	return pruned, nil
}

// filterEditedSources drops any source the edit introduced. An edited report
// may cite a subset of the current report's sources, never new ones, so every
// surviving entry must match a current source by canonical URL.
func filterEditedSources(updated, current map[string]any) {
	allowed := sourceURLSet(current)
	raw, ok := updated["sources"].([]any)
	if !ok {
		return
	}
	var kept []any
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		u, _ := m["url"].(string)
		if allowed[evidence.CanonicalURL(u)] {
			kept = append(kept, entry)
		}
	}
	if len(kept) == 0 {
		delete(updated, "sources")
		return
	}
	updated["sources"] = kept
}

func sourceURLSet(report map[string]any) map[string]bool {
	set := make(map[string]bool)
	raw, _ := report["sources"].([]any)
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if u, ok := m["url"].(string); ok {
			set[evidence.CanonicalURL(u)] = true
		}
	}
	return set
}

// resolveOfficialSite picks and validates the official-website candidate: the
// request's website hint first, then the first official-site search hit.
// Returns the validated URL and its bare host, or empty strings.
func (p *Pipeline) resolveOfficialSite(req model.EnrichmentRequest, batches []model.Batch, log *zap.Logger) (string, string) {
	candidate := strings.TrimSpace(req.Website)
	if candidate == "" {
		for _, batch := range batches {
			if batch.Query.Intent != model.IntentOfficialSite || len(batch.Results) == 0 {
				continue
			}
			candidate = batch.Results[0].URL
			break
		}
	}
	if candidate == "" {
		return "", ""
	}
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	dv := p.validator.Validate(req.EntityName(), candidate)
	if !dv.IsValid {
		log.Warn("pipeline: website candidate failed domain validation",
			zap.String("candidate", candidate),
			zap.Float64("confidence", dv.Confidence),
			zap.Strings("expected", dv.ExpectedDomains))
		return "", ""
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return "", ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return candidate, host
}
