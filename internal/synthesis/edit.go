package synthesis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/entity-intel/pkg/anthropic"
)

// Edit applies a free-form instruction to an existing report. The model may
// reformat or remove content but must not add facts; the instruction runs
// under the same grounding contract as synthesis. Unlike Synthesize there is
// no raw-text fallback: an unparseable reply leaves the caller's report
// unchanged, so it surfaces as an error.
func (c *Client) Edit(ctx context.Context, currentReport map[string]any, instruction, entityContext string) (map[string]any, anthropic.TokenUsage, error) {
	reportJSON, err := json.MarshalIndent(currentReport, "", "  ")
	if err != nil {
		return nil, anthropic.TokenUsage{}, eris.Wrap(err, "synthesis: marshal report")
	}

	user := fmt.Sprintf("Current report for %s:\n%s\n\nInstruction: %s", entityContext, reportJSON, instruction)

	resp, err := c.complete(ctx, editSystemText, user)
	if err != nil {
		return nil, anthropic.TokenUsage{}, eris.Wrap(err, "synthesis: edit message")
	}

	usage := resp.Usage
	usage.LogCost(c.cfg.Model, "chat_edit")

	updated, ok := parseProfile(responseText(resp))
	if !ok {
		return nil, usage, eris.New("synthesis: edit response was not valid JSON")
	}
	return updated, usage, nil
}
