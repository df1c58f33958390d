package resolver

import (
	_ "embed"
	"net/url"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/entity-intel/internal/config"
	"github.com/sells-group/entity-intel/internal/model"
)

//go:embed knowndomains.yaml
var knownDomainsYAML []byte

// Validator scores whether a candidate URL's host belongs to a named entity.
// Search results routinely surface look-alike and aggregator domains; an
// unvalidated host must not enter the grounding set as "official".
type Validator struct {
	cfg   config.ValidationConfig
	known map[string][]string
}

// NewValidator builds a Validator from the embedded known-domains table.
func NewValidator(cfg config.ValidationConfig) (*Validator, error) {
	known := make(map[string][]string)
	if err := yaml.Unmarshal(knownDomainsYAML, &known); err != nil {
		return nil, eris.Wrap(err, "resolver: parse known domains")
	}
	return &Validator{cfg: cfg, known: known}, nil
}

// Validate checks candidateURL against entityName. The known-entity table is
// consulted first; entities absent from it fall back to token-overlap scoring
// on the host.
func (v *Validator) Validate(entityName, candidateURL string) model.DomainValidation {
	host := candidateHost(candidateURL)
	if host == "" || entityName == "" {
		return model.DomainValidation{}
	}
	normalized := normalizeName(entityName)

	if expected := v.lookupKnown(normalized); len(expected) > 0 {
		for _, domain := range expected {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return model.DomainValidation{IsValid: true, Confidence: 0.95, ExpectedDomains: expected}
			}
		}
		// Known entity, wrong host: likely not official.
		return model.DomainValidation{
			IsValid:         false,
			Confidence:      v.cfg.MismatchConfidence,
			ExpectedDomains: expected,
		}
	}

	confidence := tokenOverlap(normalized, host)
	return model.DomainValidation{
		IsValid:    confidence > v.cfg.ValidityCutoff,
		Confidence: confidence,
	}
}

// lookupKnown matches the normalized name exactly, then by substring in
// either direction ("microsoft corporation" still hits "microsoft").
func (v *Validator) lookupKnown(normalized string) []string {
	if domains, ok := v.known[normalized]; ok {
		return domains
	}
	for name, domains := range v.known {
		if strings.Contains(normalized, name) || strings.Contains(name, normalized) {
			return domains
		}
	}
	return nil
}

// tokenOverlap returns the fraction of name tokens longer than 2 runes that
// appear in the host.
func tokenOverlap(normalizedName, host string) float64 {
	bareHost := strings.ReplaceAll(strings.ReplaceAll(host, "-", ""), ".", "")

	var total, matched int
	for _, token := range strings.Fields(normalizedName) {
		if len([]rune(token)) <= 2 {
			continue
		}
		total++
		if strings.Contains(bareHost, token) {
			matched++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// foldDiacritics strips combining marks so "Nestlé" matches "nestle".
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeName lowercases, folds diacritics, and strips common legal
// suffixes and punctuation.
func normalizeName(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	var tokens []string
	for _, token := range strings.Fields(b.String()) {
		switch token {
		case "inc", "llc", "ltd", "corp", "corporation", "plc", "gmbh", "co", "company", "the":
			continue
		}
		tokens = append(tokens, token)
	}
	return strings.Join(tokens, " ")
}

func candidateHost(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
