// Package resolver classifies discovered URLs into social and official-site
// candidates and scores whether a candidate domain belongs to the target
// entity.
package resolver

import (
	"net/url"
	"strings"

	"github.com/sells-group/entity-intel/internal/model"
)

// SocialCategory tags a classified URL.
type SocialCategory string

const (
	CategoryLinkedIn SocialCategory = "linkedin"
	CategoryTwitter  SocialCategory = "twitter"
	CategoryOther    SocialCategory = "other"
	CategoryNone     SocialCategory = ""
)

// socialPatterns maps host (and optional path prefix) to a category. Order
// matters: first match wins, and linkedin profile paths must be checked
// before the bare-host fallthrough.
var socialPatterns = []struct {
	host       string
	pathPrefix string
	category   SocialCategory
}{
	{"linkedin.com", "/in/", CategoryLinkedIn},
	{"linkedin.com", "/company/", CategoryLinkedIn},
	{"linkedin.com", "", CategoryLinkedIn},
	{"twitter.com", "", CategoryTwitter},
	{"x.com", "", CategoryTwitter},
	{"github.com", "", CategoryOther},
	{"crunchbase.com", "", CategoryOther},
	{"facebook.com", "", CategoryOther},
	{"instagram.com", "", CategoryOther},
	{"youtube.com", "", CategoryOther},
	{"medium.com", "", CategoryOther},
	{"bloomberg.com", "/profile/", CategoryOther},
	{"pitchbook.com", "", CategoryOther},
	{"wikipedia.org", "", CategoryOther},
}

// Classify returns the social category for a URL, or CategoryNone for
// non-social URLs.
func Classify(rawURL string) SocialCategory {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return CategoryNone
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	for _, p := range socialPatterns {
		if host != p.host && !strings.HasSuffix(host, "."+p.host) {
			continue
		}
		if p.pathPrefix != "" && !strings.HasPrefix(u.Path, p.pathPrefix) {
			continue
		}
		return p.category
	}
	return CategoryNone
}

// Resolve scans source URLs and crawled links in order, keeping the first
// match per category and accumulating the rest into Others. The website slot
// is filled by the caller after domain validation, not here.
func Resolve(sources []model.EvidenceSource, links []string) model.SocialProfileSet {
	var set model.SocialProfileSet
	seen := make(map[string]bool)

	consider := func(rawURL string) {
		if rawURL == "" || seen[rawURL] {
			return
		}
		seen[rawURL] = true

		switch Classify(rawURL) {
		case CategoryLinkedIn:
			if set.LinkedIn == "" {
				set.LinkedIn = rawURL
			} else if set.LinkedIn != rawURL {
				set.Others = append(set.Others, rawURL)
			}
		case CategoryTwitter:
			if set.Twitter == "" {
				set.Twitter = rawURL
			} else if set.Twitter != rawURL {
				set.Others = append(set.Others, rawURL)
			}
		case CategoryOther:
			set.Others = append(set.Others, rawURL)
		}
	}

	for _, s := range sources {
		consider(s.URL)
	}
	for _, l := range links {
		consider(l)
	}
	return set
}
