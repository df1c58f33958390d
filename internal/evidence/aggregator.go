// Package evidence merges retrieval batches into the deduplicated,
// content-bearing source set handed to synthesis.
package evidence

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/entity-intel/internal/config"
	"github.com/sells-group/entity-intel/internal/model"
)

// Aggregator flattens raw retrieval batches into evidence sources.
type Aggregator struct {
	cfg config.EvidenceConfig
}

// New creates an Aggregator.
func New(cfg config.EvidenceConfig) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate flattens batches in submission order, deduplicates by canonical
// URL (first seen wins), drops thin sources, and caps the set. Sources on
// officialHost survive the cap ahead of everything else; pass "" when no
// official host is known.
//
// Batches must be fully collected before calling: dedup order is the query
// submission order, not fetch completion order, so output is deterministic
// for a fixed query list.
func (a *Aggregator) Aggregate(batches []model.Batch, officialHost string) []model.EvidenceSource {
	officialHost = strings.TrimPrefix(strings.ToLower(officialHost), "www.")

	seen := make(map[string]bool)
	var sources []model.EvidenceSource
	dropped := 0

	for _, batch := range batches {
		for _, r := range batch.Results {
			canonical := CanonicalURL(r.URL)
			if canonical == "" || seen[canonical] {
				continue
			}
			seen[canonical] = true

			content := strings.TrimSpace(r.Content)
			if len(content) < a.cfg.MinContentChars {
				dropped++
				continue
			}
			content = TruncateChars(content, a.cfg.PerSourceChars)
			sources = append(sources, model.EvidenceSource{
				URL:     canonical,
				Title:   strings.TrimSpace(r.Title),
				Content: content,
				Length:  len(content),
			})
		}
	}

	if dropped > 0 {
		zap.L().Debug("dropped thin sources",
			zap.Int("dropped", dropped),
			zap.Int("min_chars", a.cfg.MinContentChars))
	}

	if a.cfg.MaxSources > 0 && len(sources) > a.cfg.MaxSources {
		sources = capByPriority(sources, officialHost, a.cfg.MaxSources)
	}
	return sources
}

// capByPriority keeps official-host sources first, then earlier-discovered
// ones, preserving discovery order within each group.
func capByPriority(sources []model.EvidenceSource, officialHost string, max int) []model.EvidenceSource {
	if officialHost == "" {
		return sources[:max]
	}

	capped := make([]model.EvidenceSource, 0, max)
	for _, s := range sources {
		if len(capped) == max {
			break
		}
		if hostOf(s.URL) == officialHost {
			capped = append(capped, s)
		}
	}
	for _, s := range sources {
		if len(capped) == max {
			break
		}
		if hostOf(s.URL) != officialHost {
			capped = append(capped, s)
		}
	}
	return capped
}

// CollectLinks gathers every result URL and outbound link across batches, in
// submission order, for social-profile resolution. Raw values, not
// canonicalized: host classification needs the original path casing.
func CollectLinks(batches []model.Batch) []string {
	seen := make(map[string]bool)
	var links []string
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		links = append(links, u)
	}
	for _, batch := range batches {
		for _, r := range batch.Results {
			add(r.URL)
			for _, l := range r.Links {
				add(l)
			}
		}
	}
	return links
}

// CanonicalURL normalizes a URL for deduplication: https scheme, lowercase
// host without www, no fragment, no trailing slash. Returns "" for values
// that do not parse as absolute URLs.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	// Synthetic provider URLs (e.g. perplexity:social/acme) pass through.
	if i := strings.Index(raw, ":"); i > 0 && !strings.Contains(raw, "://") && isScheme(raw[:i]) {
		return raw
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = "https"
	u.Fragment = ""
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

func isScheme(s string) bool {
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return len(s) > 0
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// TruncateChars cuts s to at most n bytes without splitting a multi-byte
// rune: the cut backs up to the nearest rune boundary. n <= 0 means no limit.
func TruncateChars(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := s[:n]
	for len(cut) > 0 && !utf8.RuneStart(cut[len(cut)-1]) {
		cut = cut[:len(cut)-1]
	}
	if r, size := utf8.DecodeLastRuneInString(cut); r == utf8.RuneError && size == 1 {
		cut = cut[:len(cut)-1]
	}
	return cut
}
