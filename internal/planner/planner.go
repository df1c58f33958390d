// Package planner turns an enrichment request into an ordered, capped list
// of targeted search queries.
package planner

import (
	"fmt"
	"strings"

	"github.com/sells-group/entity-intel/internal/model"
)

// Caps bounds the number of queries per entity kind.
type Caps struct {
	Person  int
	Company int
}

// DefaultCaps returns the production query caps.
func DefaultCaps() Caps {
	return Caps{Person: 6, Company: 10}
}

// Plan builds the query list for a request. It is deterministic for a given
// request; truncation keeps identity and overview queries ahead of
// longer-tail intents. Callers must reject unidentified requests before
// planning — Plan assumes at least one identifying field is present.
func Plan(req model.EnrichmentRequest, caps Caps) []model.Query {
	switch req.Kind {
	case model.KindCompany:
		return truncate(planCompany(req), caps.Company)
	default:
		return truncate(planPerson(req), caps.Person)
	}
}

func planPerson(req model.EnrichmentRequest) []model.Query {
	name := req.EntityName()
	company := strings.TrimSpace(req.Company)

	var queries []model.Query

	// Direct lookups come first: they are the highest-precision evidence.
	if u := strings.TrimSpace(req.ProfileURL); u != "" {
		queries = append(queries, model.Query{Text: u, Intent: model.IntentDirect})
	} else if email := strings.TrimSpace(req.Email); email != "" {
		queries = append(queries, model.Query{Text: fmt.Sprintf("%q %s", email, name), Intent: model.IntentDirect})
	}

	if name == "" {
		return queries
	}

	queries = append(queries,
		model.Query{Text: withContext(fmt.Sprintf("%q professional profile", name), company, req.Country), Intent: model.IntentProfile},
		model.Query{Text: withContext(fmt.Sprintf("%q career history experience", name), company, ""), Intent: model.IntentCareer},
		model.Query{Text: withContext(fmt.Sprintf("%q linkedin OR twitter OR github", name), company, ""), Intent: model.IntentSocial},
		model.Query{Text: fmt.Sprintf("%q investor OR \"board member\" OR advisor", name), Intent: model.IntentBoard},
		model.Query{Text: withContext(fmt.Sprintf("%q news", name), company, req.Country), Intent: model.IntentNews},
	)

	return queries
}

func planCompany(req model.EnrichmentRequest) []model.Query {
	name := req.EntityName()
	if name == "" {
		// Website-only requests still get identity queries keyed on the host.
		name = hostOf(req.Website)
	}

	queries := []model.Query{
		{Text: withContext(fmt.Sprintf("%s official website", name), "", req.Country), Intent: model.IntentOfficialSite},
		{Text: fmt.Sprintf("%q company overview about", name), Intent: model.IntentOverview},
		{Text: fmt.Sprintf("%q revenue funding financials", name), Intent: model.IntentFinancials},
		{Text: fmt.Sprintf("%q CEO executives leadership team", name), Intent: model.IntentLeadership},
		{Text: fmt.Sprintf("%q \"board of directors\"", name), Intent: model.IntentBoard},
		{Text: fmt.Sprintf("%q ownership \"parent company\" OR investors", name), Intent: model.IntentOwnership},
		{Text: fmt.Sprintf("%q announcement OR acquisition OR launch", name), Intent: model.IntentNews},
		{Text: fmt.Sprintf("%q linkedin OR crunchbase", name), Intent: model.IntentSocial},
	}

	if industry := strings.TrimSpace(req.Industry); industry != "" {
		queries = append(queries, model.Query{
			Text:   fmt.Sprintf("%q %s market position competitors", name, industry),
			Intent: model.IntentOverview,
		})
	}
	if country := strings.TrimSpace(req.Country); country != "" {
		queries = append(queries, model.Query{
			Text:   fmt.Sprintf("%q %s offices locations", name, country),
			Intent: model.IntentOverview,
		})
	}

	return queries
}

// withContext appends optional company and country context to a query.
func withContext(base, company, country string) string {
	parts := []string{base}
	if company = strings.TrimSpace(company); company != "" {
		parts = append(parts, company)
	}
	if country = strings.TrimSpace(country); country != "" {
		parts = append(parts, country)
	}
	return strings.Join(parts, " ")
}

func hostOf(website string) string {
	website = strings.TrimSpace(website)
	website = strings.TrimPrefix(website, "https://")
	website = strings.TrimPrefix(website, "http://")
	website = strings.TrimPrefix(website, "www.")
	if idx := strings.IndexByte(website, '/'); idx >= 0 {
		website = website[:idx]
	}
	return website
}

func truncate(queries []model.Query, cap int) []model.Query {
	if cap > 0 && len(queries) > cap {
		return queries[:cap]
	}
	return queries
}
