// Package sanitize prunes placeholder values from synthesis output and
// enforces the grounding gate before a report is returned.
package sanitize

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/entity-intel/internal/evidence"
	"github.com/sells-group/entity-intel/internal/model"
	"github.com/sells-group/entity-intel/internal/synthesis"
)

// ErrUngrounded means the sanitized report ended up with no overview or no
// sources. A report without an evidence trail is not a valid output.
var ErrUngrounded = eris.New("sanitize: no grounded content in synthesized report")

// placeholders are model outputs that mean "not found". Compared after
// trimming and lowercasing.
var placeholders = map[string]bool{
	"":                true,
	"n/a":             true,
	"na":              true,
	"none":            true,
	"null":            true,
	"unknown":         true,
	"not found":       true,
	"not available":   true,
	"not provided":    true,
	"not specified":   true,
	"no information":  true,
	"not applicable":  true,
	"no data":         true,
	"-":               true,
	"tbd":             true,
	"information not": true,
}

// Sanitize walks the synthesized profile, prunes empty and placeholder
// values, flattens alias keys, cross-checks cited sources against the
// evidence set, and maps the result into the typed report. Fails with
// ErrUngrounded when nothing grounded remains.
func Sanitize(profile *synthesis.SynthesizedProfile, req model.EnrichmentRequest, sources []model.EvidenceSource, socials model.SocialProfileSet) (*model.EnrichmentReport, error) {
	report := &model.EnrichmentReport{
		Kind:       req.Kind,
		EntityName: req.EntityName(),
		Socials:    socials,
	}

	if profile.FellBack {
		// Raw-text fallback: the reply is the overview and the grounding
		// trail is the full evidence set that produced it.
		report.Overview = strings.TrimSpace(profile.Overview)
		if report.Overview == "" || len(sources) == 0 {
			return nil, ErrUngrounded
		}
		report.Sources = sourcesFromEvidence(sources)
		return report, nil
	}

	pruned, _ := Prune(profile.Raw).(map[string]any)
	if pruned == nil {
		return nil, ErrUngrounded
	}
	flattenAliases(pruned)

	report.Overview, _ = pruned["overview"].(string)
	report.Sources = groundedSources(pruned, sources)

	if report.Overview == "" || len(report.Sources) == 0 {
		return nil, ErrUngrounded
	}

	if person, ok := pruned["person"].(map[string]any); ok {
		report.Person = decodeSection[model.PersonProfile](person)
	}
	if company, ok := pruned["company"].(map[string]any); ok {
		report.Company = decodeSection[model.CompanyProfile](company)
	}

	delete(pruned, "sources")
	report.Evidence = pruned
	return report, nil
}

// Prune recursively removes empty and placeholder values. Strings are
// trimmed; maps and slices that end up empty are removed entirely. Returns
// nil when the value itself prunes away.
func Prune(v any) any {
	switch val := v.(type) {
	case string:
		trimmed := strings.TrimSpace(val)
		if isPlaceholder(trimmed) {
			return nil
		}
		return trimmed
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if kept := Prune(item); kept != nil {
				out[k] = kept
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			if kept := Prune(item); kept != nil {
				out = append(out, kept)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case nil:
		return nil
	default:
		// Numbers and booleans carry information as-is.
		return val
	}
}

func isPlaceholder(trimmed string) bool {
	lower := strings.ToLower(trimmed)
	if placeholders[lower] {
		return true
	}
	// "Not found in sources", "no information available", and variants.
	for prefix := range placeholders {
		if len(prefix) > 3 && strings.HasPrefix(lower, prefix+" ") {
			return true
		}
	}
	return false
}

// flattenAliases lifts nested alias keys onto the canonical surface. Models
// sometimes emit "summary" or "profile.summary" instead of "overview".
func flattenAliases(pruned map[string]any) {
	if _, ok := pruned["overview"].(string); ok {
		return
	}
	for _, alias := range []string{"summary", "description"} {
		if s, ok := pruned[alias].(string); ok {
			pruned["overview"] = s
			delete(pruned, alias)
			return
		}
	}
	for _, nested := range []string{"profile", "person", "company"} {
		section, ok := pruned[nested].(map[string]any)
		if !ok {
			continue
		}
		for _, alias := range []string{"overview", "summary", "description"} {
			if s, ok := section[alias].(string); ok {
				pruned["overview"] = s
				delete(section, alias)
				return
			}
		}
	}
}

// groundedSources keeps only cited sources whose URL matches an evidence
// entry. When the model cited nothing usable, the full evidence set stands
// in: the overview was synthesized from it.
func groundedSources(pruned map[string]any, sources []model.EvidenceSource) []model.Source {
	known := make(map[string]model.EvidenceSource, len(sources))
	for _, s := range sources {
		known[s.URL] = s
	}

	var cited []model.Source
	if rawSources, ok := pruned["sources"].([]any); ok {
		for _, rs := range rawSources {
			entry, ok := rs.(map[string]any)
			if !ok {
				continue
			}
			rawURL, _ := entry["url"].(string)
			canonical := evidence.CanonicalURL(rawURL)
			ev, ok := known[canonical]
			if !ok {
				continue
			}
			title, _ := entry["title"].(string)
			if title == "" {
				title = ev.Title
			}
			cited = append(cited, model.Source{Title: title, URL: canonical})
		}
	}
	if len(cited) > 0 {
		return cited
	}
	return sourcesFromEvidence(sources)
}

func sourcesFromEvidence(sources []model.EvidenceSource) []model.Source {
	out := make([]model.Source, 0, len(sources))
	for _, s := range sources {
		out = append(out, model.Source{Title: s.Title, URL: s.URL})
	}
	return out
}

// decodeSection maps a pruned loosely-typed section into its typed struct
// through a JSON round trip; unknown keys are dropped, mismatched shapes
// zero out rather than failing.
func decodeSection[T any](section map[string]any) *T {
	raw, err := json.Marshal(section)
	if err != nil {
		return nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return &out
}
