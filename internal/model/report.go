package model

import "time"

// Source is a cited evidence reference in the final report.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Education is one entry in a person's education history.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Years       string `json:"years,omitempty"`
}

// Experience is one entry in a person's work history.
type Experience struct {
	Company string `json:"company"`
	Title   string `json:"title,omitempty"`
	Years   string `json:"years,omitempty"`
}

// PersonProfile holds the structured person sections of a report.
type PersonProfile struct {
	FullName   string       `json:"full_name,omitempty"`
	Headline   string       `json:"headline,omitempty"`
	Location   string       `json:"location,omitempty"`
	Company    string       `json:"company,omitempty"`
	Education  []Education  `json:"education,omitempty"`
	Experience []Experience `json:"experience,omitempty"`
}

// Leader is a named person with a role, used for leadership and board lists.
type Leader struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

// Financials holds the loosely structured financial facts of a company.
type Financials struct {
	Revenue    string `json:"revenue,omitempty"`
	Employees  string `json:"employees,omitempty"`
	Funding    string `json:"funding,omitempty"`
	FiscalYear string `json:"fiscal_year,omitempty"`
}

// CompanyProfile holds the structured company sections of a report.
type CompanyProfile struct {
	Name         string      `json:"name,omitempty"`
	Industry     string      `json:"industry,omitempty"`
	Founded      string      `json:"founded,omitempty"`
	Headquarters string      `json:"headquarters,omitempty"`
	Website      string      `json:"website,omitempty"`
	Leadership   []Leader    `json:"leadership,omitempty"`
	BoardMembers []Leader    `json:"board_members,omitempty"`
	Ownership    string      `json:"ownership,omitempty"`
	Financials   *Financials `json:"financials,omitempty"`
	Offices      []string    `json:"offices,omitempty"`
}

// EnrichmentReport is the final typed output of a pipeline run. Every
// non-empty field is attributable to at least one entry in Sources.
type EnrichmentReport struct {
	RunID       string           `json:"run_id"`
	Kind        EntityKind       `json:"kind"`
	EntityName  string           `json:"entity_name"`
	Overview    string           `json:"overview"`
	Person      *PersonProfile   `json:"person,omitempty"`
	Company     *CompanyProfile  `json:"company,omitempty"`
	Socials     SocialProfileSet `json:"socials,omitempty"`
	Sources     []Source         `json:"sources"`
	Evidence    map[string]any   `json:"evidence,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Usage accumulates per-provider consumption across a run for cost
// attribution.
type Usage struct {
	SearchTokens      int `json:"search_tokens"`
	CrawlCredits      int `json:"crawl_credits"`
	PerplexityQueries int `json:"perplexity_queries"`
	LLMInputTokens    int `json:"llm_input_tokens"`
	LLMOutputTokens   int `json:"llm_output_tokens"`
}

// Add accumulates another Usage into u.
func (u *Usage) Add(other Usage) {
	u.SearchTokens += other.SearchTokens
	u.CrawlCredits += other.CrawlCredits
	u.PerplexityQueries += other.PerplexityQueries
	u.LLMInputTokens += other.LLMInputTokens
	u.LLMOutputTokens += other.LLMOutputTokens
}
