package model

// RawResult is a single retrieval hit before deduplication. Ephemeral;
// produced per query by the retrieval executor.
type RawResult struct {
	URL     string      `json:"url"`
	Title   string      `json:"title"`
	Content string      `json:"content"`
	Links   []string    `json:"links,omitempty"`
	Intent  QueryIntent `json:"intent"`
}

// Batch holds the results of one executed query. A failed or timed-out query
// produces a Batch with no results rather than an error.
type Batch struct {
	Query   Query       `json:"query"`
	Results []RawResult `json:"results"`
}

// EvidenceSource is a deduplicated, content-bearing retrieval result used as
// synthesis input. URLs are canonical and unique within a set.
type EvidenceSource struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Length  int    `json:"length"`
}

// SocialProfileSet holds best-guess profile URLs discovered for the entity.
type SocialProfileSet struct {
	LinkedIn string   `json:"linkedin,omitempty"`
	Twitter  string   `json:"twitter,omitempty"`
	Website  string   `json:"website,omitempty"`
	Others   []string `json:"others,omitempty"`
}

// Empty reports whether no profile URL was found at all.
func (s SocialProfileSet) Empty() bool {
	return s.LinkedIn == "" && s.Twitter == "" && s.Website == "" && len(s.Others) == 0
}

// DomainValidation is the result of checking whether a candidate URL's host
// actually belongs to the named entity.
type DomainValidation struct {
	IsValid         bool     `json:"is_valid"`
	Confidence      float64  `json:"confidence"`
	ExpectedDomains []string `json:"expected_domains,omitempty"`
}
