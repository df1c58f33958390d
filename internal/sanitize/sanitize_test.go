package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/entity-intel/internal/model"
	"github.com/sells-group/entity-intel/internal/synthesis"
)

func acmeEvidence() []model.EvidenceSource {
	return []model.EvidenceSource{
		{URL: "https://acme-robotics.com/about", Title: "About Acme", Content: "Acme Robotics builds robot arms."},
		{URL: "https://news.example.com/acme-funding", Title: "Acme raises Series B", Content: "Acme raised $40M."},
	}
}

func companyReq() model.EnrichmentRequest {
	return model.EnrichmentRequest{Kind: model.KindCompany, CompanyName: "Acme Robotics"}
}

func TestPrune_Strings(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"kept", "Acme Robotics", "Acme Robotics"},
		{"trimmed", "  Acme  ", "Acme"},
		{"empty", "", nil},
		{"whitespace", "   ", nil},
		{"not found", "Not Found", nil},
		{"not found in sources", "not found in sources", nil},
		{"n/a", "N/A", nil},
		{"unknown", "unknown", nil},
		{"none", "None", nil},
		{"not available", "not available", nil},
		{"dash", "-", nil},
		{"number kept", 42.0, 42.0},
		{"bool kept", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Prune(tt.in))
		})
	}
}

func TestPrune_RecursivelyRemovesEmptyContainers(t *testing.T) {
	in := map[string]any{
		"overview": "Acme builds robots.",
		"company": map[string]any{
			"name":       "Acme Robotics",
			"founded":    "not found",
			"leadership": []any{map[string]any{"name": "", "title": "N/A"}},
		},
		"empty_list": []any{},
		"empty_map":  map[string]any{},
	}

	got := Prune(in).(map[string]any)
	assert.Equal(t, "Acme builds robots.", got["overview"])
	assert.NotContains(t, got, "empty_list")
	assert.NotContains(t, got, "empty_map")

	company := got["company"].(map[string]any)
	assert.Equal(t, "Acme Robotics", company["name"])
	assert.NotContains(t, company, "founded")
	assert.NotContains(t, company, "leadership")
}

func TestSanitize_TypedReport(t *testing.T) {
	profile := &synthesis.SynthesizedProfile{
		Raw: map[string]any{
			"overview": "Acme Robotics builds industrial robot arms.",
			"company": map[string]any{
				"name":       "Acme Robotics",
				"industry":   "Robotics",
				"founded":    "unknown",
				"leadership": []any{map[string]any{"name": "Jane Doe", "title": "CEO"}},
			},
			"sources": []any{
				map[string]any{"title": "About Acme", "url": "https://acme-robotics.com/about"},
			},
		},
		Overview: "Acme Robotics builds industrial robot arms.",
	}

	report, err := Sanitize(profile, companyReq(), acmeEvidence(), model.SocialProfileSet{LinkedIn: "https://linkedin.com/company/acme"})
	require.NoError(t, err)

	assert.Equal(t, model.KindCompany, report.Kind)
	assert.Equal(t, "Acme Robotics", report.EntityName)
	assert.Equal(t, "Acme Robotics builds industrial robot arms.", report.Overview)
	require.NotNil(t, report.Company)
	assert.Equal(t, "Robotics", report.Company.Industry)
	assert.Empty(t, report.Company.Founded)
	require.Len(t, report.Company.Leadership, 1)
	assert.Equal(t, "Jane Doe", report.Company.Leadership[0].Name)
	require.Len(t, report.Sources, 1)
	assert.Equal(t, "https://acme-robotics.com/about", report.Sources[0].URL)
	assert.Equal(t, "https://linkedin.com/company/acme", report.Socials.LinkedIn)
	assert.NotContains(t, report.Evidence, "sources")
}

func TestSanitize_DropsUncitedSources(t *testing.T) {
	profile := &synthesis.SynthesizedProfile{
		Raw: map[string]any{
			"overview": "Grounded overview.",
			"sources": []any{
				map[string]any{"title": "Fabricated", "url": "https://made-up.example.com/page"},
				map[string]any{"title": "Real", "url": "https://news.example.com/acme-funding"},
			},
		},
	}

	report, err := Sanitize(profile, companyReq(), acmeEvidence(), model.SocialProfileSet{})
	require.NoError(t, err)
	require.Len(t, report.Sources, 1)
	assert.Equal(t, "https://news.example.com/acme-funding", report.Sources[0].URL)
}

func TestSanitize_NoCitedSourcesFallsBackToEvidence(t *testing.T) {
	profile := &synthesis.SynthesizedProfile{
		Raw: map[string]any{"overview": "Grounded overview."},
	}

	report, err := Sanitize(profile, companyReq(), acmeEvidence(), model.SocialProfileSet{})
	require.NoError(t, err)
	assert.Len(t, report.Sources, 2)
}

func TestSanitize_AliasFlattening(t *testing.T) {
	profile := &synthesis.SynthesizedProfile{
		Raw: map[string]any{
			"profile": map[string]any{"summary": "Summary treated as overview."},
		},
	}

	report, err := Sanitize(profile, companyReq(), acmeEvidence(), model.SocialProfileSet{})
	require.NoError(t, err)
	assert.Equal(t, "Summary treated as overview.", report.Overview)
}

func TestSanitize_NoOverviewFails(t *testing.T) {
	profile := &synthesis.SynthesizedProfile{
		Raw: map[string]any{
			"company": map[string]any{"name": "Acme Robotics"},
		},
	}

	_, err := Sanitize(profile, companyReq(), acmeEvidence(), model.SocialProfileSet{})
	assert.ErrorIs(t, err, ErrUngrounded)
}

func TestSanitize_AllPlaceholdersFails(t *testing.T) {
	profile := &synthesis.SynthesizedProfile{
		Raw: map[string]any{
			"overview": "not found",
			"company":  map[string]any{"name": "N/A"},
		},
	}

	_, err := Sanitize(profile, companyReq(), acmeEvidence(), model.SocialProfileSet{})
	assert.ErrorIs(t, err, ErrUngrounded)
}

func TestSanitize_FallbackProfileUsesEvidenceAsSources(t *testing.T) {
	profile := &synthesis.SynthesizedProfile{
		Overview: "Raw text reply from the model.",
		FellBack: true,
	}

	report, err := Sanitize(profile, companyReq(), acmeEvidence(), model.SocialProfileSet{})
	require.NoError(t, err)
	assert.Equal(t, "Raw text reply from the model.", report.Overview)
	assert.Len(t, report.Sources, 2)
	assert.Nil(t, report.Evidence)
}

func TestSanitize_FallbackWithNoEvidenceFails(t *testing.T) {
	profile := &synthesis.SynthesizedProfile{
		Overview: "Raw text reply.",
		FellBack: true,
	}

	_, err := Sanitize(profile, companyReq(), nil, model.SocialProfileSet{})
	assert.ErrorIs(t, err, ErrUngrounded)
}
