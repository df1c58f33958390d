package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/entity-intel/internal/model"
)

func intents(queries []model.Query) []model.QueryIntent {
	out := make([]model.QueryIntent, len(queries))
	for i, q := range queries {
		out[i] = q.Intent
	}
	return out
}

func TestPlanPersonFullSet(t *testing.T) {
	req := model.EnrichmentRequest{
		Kind:       model.KindPerson,
		FullName:   "Jane Doe",
		Company:    "Acme Robotics",
		ProfileURL: "https://linkedin.com/in/janedoe",
		Country:    "US",
	}

	queries := Plan(req, DefaultCaps())
	require.Len(t, queries, 6)

	assert.Equal(t, model.IntentDirect, queries[0].Intent)
	assert.Equal(t, "https://linkedin.com/in/janedoe", queries[0].Text)

	assert.Equal(t, []model.QueryIntent{
		model.IntentDirect,
		model.IntentProfile,
		model.IntentCareer,
		model.IntentSocial,
		model.IntentBoard,
		model.IntentNews,
	}, intents(queries))

	// Company and country context ride along on the profile query.
	assert.Contains(t, queries[1].Text, "Jane Doe")
	assert.Contains(t, queries[1].Text, "Acme Robotics")
	assert.Contains(t, queries[1].Text, "US")
}

func TestPlanPersonEmailDirectLookup(t *testing.T) {
	req := model.EnrichmentRequest{
		Kind:     model.KindPerson,
		FullName: "Jane Doe",
		Email:    "jane@acme.com",
	}

	queries := Plan(req, DefaultCaps())
	require.NotEmpty(t, queries)
	assert.Equal(t, model.IntentDirect, queries[0].Intent)
	assert.Contains(t, queries[0].Text, `"jane@acme.com"`)
}

func TestPlanPersonProfileURLWinsOverEmail(t *testing.T) {
	req := model.EnrichmentRequest{
		Kind:       model.KindPerson,
		FullName:   "Jane Doe",
		ProfileURL: "https://linkedin.com/in/janedoe",
		Email:      "jane@acme.com",
	}

	queries := Plan(req, DefaultCaps())
	direct := 0
	for _, q := range queries {
		if q.Intent == model.IntentDirect {
			direct++
		}
	}
	assert.Equal(t, 1, direct)
	assert.Equal(t, "https://linkedin.com/in/janedoe", queries[0].Text)
}

func TestPlanPersonProfileURLOnly(t *testing.T) {
	req := model.EnrichmentRequest{
		Kind:       model.KindPerson,
		ProfileURL: "https://linkedin.com/in/janedoe",
	}

	queries := Plan(req, DefaultCaps())
	require.Len(t, queries, 1)
	assert.Equal(t, model.IntentDirect, queries[0].Intent)
}

func TestPlanCompanyFullSet(t *testing.T) {
	req := model.EnrichmentRequest{
		Kind:        model.KindCompany,
		CompanyName: "Acme Robotics",
		Industry:    "industrial automation",
		Country:     "Germany",
	}

	queries := Plan(req, DefaultCaps())
	require.Len(t, queries, 10)

	assert.Equal(t, model.IntentOfficialSite, queries[0].Intent)
	assert.Contains(t, queries[0].Text, "official website")
	assert.Contains(t, queries[0].Text, "Germany")

	seen := map[model.QueryIntent]bool{}
	for _, q := range queries {
		seen[q.Intent] = true
	}
	for _, want := range []model.QueryIntent{
		model.IntentOfficialSite, model.IntentOverview, model.IntentFinancials,
		model.IntentLeadership, model.IntentBoard, model.IntentOwnership,
		model.IntentNews, model.IntentSocial,
	} {
		assert.True(t, seen[want], "missing intent %s", want)
	}
}

func TestPlanCompanyWebsiteOnlyUsesHost(t *testing.T) {
	req := model.EnrichmentRequest{
		Kind:    model.KindCompany,
		Website: "https://www.acme-robotics.com/about",
	}

	queries := Plan(req, DefaultCaps())
	require.NotEmpty(t, queries)
	assert.Contains(t, queries[0].Text, "acme-robotics.com")
	assert.NotContains(t, queries[0].Text, "www.")
}

func TestPlanCapsKeepIdentityQueriesFirst(t *testing.T) {
	req := model.EnrichmentRequest{
		Kind:        model.KindCompany,
		CompanyName: "Acme Robotics",
		Industry:    "robotics",
		Country:     "US",
	}

	queries := Plan(req, Caps{Person: 6, Company: 3})
	require.Len(t, queries, 3)
	assert.Equal(t, model.IntentOfficialSite, queries[0].Intent)
	assert.Equal(t, model.IntentOverview, queries[1].Intent)
	assert.Equal(t, model.IntentFinancials, queries[2].Intent)
}

func TestPlanDeterministic(t *testing.T) {
	req := model.EnrichmentRequest{
		Kind:        model.KindCompany,
		CompanyName: "Acme Robotics",
		Country:     "US",
	}

	first := Plan(req, DefaultCaps())
	second := Plan(req, DefaultCaps())
	assert.Equal(t, first, second)
}

func TestHostOf(t *testing.T) {
	cases := map[string]string{
		"https://www.acme.com/about": "acme.com",
		"http://acme.com":            "acme.com",
		"acme.com/team":              "acme.com",
		"  https://acme.com  ":       "acme.com",
	}
	for in, want := range cases {
		assert.Equal(t, want, hostOf(in), in)
	}
}
