package model

// QueryIntent tags a planned query with the kind of evidence it targets.
type QueryIntent string

const (
	IntentDirect       QueryIntent = "direct"
	IntentProfile      QueryIntent = "profile"
	IntentOfficialSite QueryIntent = "official_site"
	IntentOverview     QueryIntent = "overview"
	IntentCareer       QueryIntent = "career"
	IntentLeadership   QueryIntent = "leadership"
	IntentBoard        QueryIntent = "board"
	IntentFinancials   QueryIntent = "financials"
	IntentOwnership    QueryIntent = "ownership"
	IntentSocial       QueryIntent = "social"
	IntentNews         QueryIntent = "news"
)

// Query is a single planned search query.
type Query struct {
	Text   string      `json:"text"`
	Intent QueryIntent `json:"intent"`
}
