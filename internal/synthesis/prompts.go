package synthesis

import (
	"fmt"
	"strings"

	"github.com/sells-group/entity-intel/internal/evidence"
	"github.com/sells-group/entity-intel/internal/model"
)

// groundingRule is appended to every system prompt. The pipeline's output
// contract depends on it: facts without a source are worse than gaps.
const groundingRule = `HARD RULE: use ONLY facts stated in the provided sources. Do not introduce names, numbers, dates, or claims absent from the source text. When the sources do not cover a field, omit the field entirely. Prefer omission over guessing.`

const personSystemText = `You are a research analyst producing a structured profile of a person from web evidence.

Return a single valid JSON object with exactly this shape (omit any field the sources do not support):
{
  "overview": "<2-4 sentence free-text summary>",
  "person": {
    "full_name": "<string>",
    "headline": "<current role / one-line descriptor>",
    "location": "<string>",
    "company": "<current employer>",
    "education": [{"institution": "<string>", "degree": "<string>", "years": "<string>"}],
    "experience": [{"company": "<string>", "title": "<string>", "years": "<string>"}]
  },
  "sources": [{"title": "<string>", "url": "<url of a provided source actually used>"}]
}

` + groundingRule

const companySystemText = `You are a research analyst producing a structured profile of a company from web evidence.

Return a single valid JSON object with exactly this shape (omit any field the sources do not support):
{
  "overview": "<2-4 sentence free-text summary>",
  "company": {
    "name": "<string>",
    "industry": "<string>",
    "founded": "<string>",
    "headquarters": "<string>",
    "website": "<string>",
    "leadership": [{"name": "<string>", "title": "<string>"}],
    "board_members": [{"name": "<string>", "title": "<string>"}],
    "ownership": "<string>",
    "financials": {"revenue": "<string>", "employees": "<string>", "funding": "<string>", "fiscal_year": "<string>"},
    "offices": ["<string>"]
  },
  "sources": [{"title": "<string>", "url": "<url of a provided source actually used>"}]
}

` + groundingRule

const editSystemText = `You are editing an existing research report per the user's instruction.

Return the complete updated report as a single valid JSON object with the same shape as the input report.

HARD RULE: you may reformat, rephrase, reorder, or remove content, but you must NOT introduce facts, names, numbers, or claims that are not already present in the report. The sources list may shrink but never grow.`

// systemPrompt selects the extraction contract for the entity kind.
func systemPrompt(kind model.EntityKind) string {
	if kind == model.KindPerson {
		return personSystemText
	}
	return companySystemText
}

// buildUserPayload assembles the evidence text, truncated to totalBudget
// characters across all sources. Sources are already individually capped by
// the aggregator; the total budget bounds the prompt when many survive.
func buildUserPayload(req model.EnrichmentRequest, sources []model.EvidenceSource, socials model.SocialProfileSet, totalBudget int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Target entity: %s (%s)\n", req.EntityName(), req.Kind)
	if req.Country != "" {
		fmt.Fprintf(&b, "Country: %s\n", req.Country)
	}
	if req.ReportIntent != "" {
		fmt.Fprintf(&b, "Report focus: %s\n", req.ReportIntent)
	}

	if !socials.Empty() {
		b.WriteString("\nKnown profile URLs:\n")
		if socials.LinkedIn != "" {
			fmt.Fprintf(&b, "- linkedin: %s\n", socials.LinkedIn)
		}
		if socials.Twitter != "" {
			fmt.Fprintf(&b, "- twitter: %s\n", socials.Twitter)
		}
		if socials.Website != "" {
			fmt.Fprintf(&b, "- website: %s\n", socials.Website)
		}
		for _, other := range socials.Others {
			fmt.Fprintf(&b, "- other: %s\n", other)
		}
	}

	b.WriteString("\nSources:\n")
	remaining := totalBudget
	for i, s := range sources {
		if remaining <= 0 {
			break
		}
		content := evidence.TruncateChars(s.Content, remaining)
		remaining -= len(content)
		fmt.Fprintf(&b, "\n[source %d] %s\nURL: %s\n%s\n", i+1, s.Title, s.URL, content)
	}
	return b.String()
}
