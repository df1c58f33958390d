package synthesis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/entity-intel/internal/config"
	"github.com/sells-group/entity-intel/internal/model"
	"github.com/sells-group/entity-intel/pkg/anthropic"
)

type mockLLM struct {
	mock.Mock
}

var _ anthropic.Client = (*mockLLM)(nil)

func (m *mockLLM) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}
}

func testClient(llm anthropic.Client) *Client {
	return NewClient(llm, config.SynthesisConfig{
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   4096,
		Temperature: 0.2,
	}, 60000)
}

func companyRequest() model.EnrichmentRequest {
	return model.EnrichmentRequest{
		Kind:        model.KindCompany,
		CompanyName: "Acme Robotics",
		Website:     "acme-robotics.com",
	}
}

func acmeSources() []model.EvidenceSource {
	return []model.EvidenceSource{
		{URL: "https://acme-robotics.com/about", Title: "About", Content: "Acme Robotics builds industrial robot arms. CEO Jane Doe founded it in 2015.", Length: 77},
	}
}

func TestSynthesize_ParsesCleanJSON(t *testing.T) {
	llm := new(mockLLM)
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"overview": "Acme Robotics builds robot arms.", "company": {"name": "Acme Robotics"}, "sources": [{"title": "About", "url": "https://acme-robotics.com/about"}]}`), nil)

	profile, err := testClient(llm).Synthesize(context.Background(), companyRequest(), acmeSources(), model.SocialProfileSet{})
	require.NoError(t, err)
	assert.False(t, profile.FellBack)
	assert.Equal(t, "Acme Robotics builds robot arms.", profile.Overview)
	assert.NotNil(t, profile.Raw["company"])
	assert.Equal(t, anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50}, profile.Usage)
	llm.AssertExpectations(t)
}

func TestSynthesize_ToleratesFencedJSON(t *testing.T) {
	llm := new(mockLLM)
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse("Here is the report:\n```json\n{\"overview\": \"Acme summary.\"}\n```"), nil)

	profile, err := testClient(llm).Synthesize(context.Background(), companyRequest(), acmeSources(), model.SocialProfileSet{})
	require.NoError(t, err)
	assert.False(t, profile.FellBack)
	assert.Equal(t, "Acme summary.", profile.Overview)
}

func TestSynthesize_MalformedJSONFallsBackToRawText(t *testing.T) {
	llm := new(mockLLM)
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse("Acme Robotics is a robotics company led by Jane Doe."), nil)

	profile, err := testClient(llm).Synthesize(context.Background(), companyRequest(), acmeSources(), model.SocialProfileSet{})
	require.NoError(t, err)
	assert.True(t, profile.FellBack)
	assert.Nil(t, profile.Raw)
	assert.Equal(t, "Acme Robotics is a robotics company led by Jane Doe.", profile.Overview)
}

func TestSynthesize_ProviderErrorPropagates(t *testing.T) {
	llm := new(mockLLM)
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, anthropic.ErrRateLimited)

	_, err := testClient(llm).Synthesize(context.Background(), companyRequest(), acmeSources(), model.SocialProfileSet{})
	require.Error(t, err)
	assert.ErrorIs(t, err, anthropic.ErrRateLimited)
}

func TestSynthesize_SendsGroundingRuleAndEvidence(t *testing.T) {
	llm := new(mockLLM)
	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return assert.ObjectsAreEqual("claude-sonnet-4-5-20250929", req.Model)
	})).Return(textResponse(`{"overview": "x"}`), nil)

	_, err := testClient(llm).Synthesize(context.Background(), companyRequest(), acmeSources(), model.SocialProfileSet{
		LinkedIn: "https://linkedin.com/company/acme-robotics",
	})
	require.NoError(t, err)

	req := llm.Calls[0].Arguments.Get(1).(anthropic.MessageRequest)
	assert.Contains(t, req.System, "Prefer omission over guessing")
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "Acme Robotics")
	assert.Contains(t, req.Messages[0].Content, "https://acme-robotics.com/about")
	assert.Contains(t, req.Messages[0].Content, "linkedin.com/company/acme-robotics")
}

func TestSynthesize_TruncatesEvidenceToTotalBudget(t *testing.T) {
	llm := new(mockLLM)
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"overview": "x"}`), nil)

	c := NewClient(llm, config.SynthesisConfig{Model: "m", MaxTokens: 100, Temperature: 0}, 40)
	sources := []model.EvidenceSource{
		{URL: "https://a.com", Title: "A", Content: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}, // 40 chars
		{URL: "https://b.com", Title: "B", Content: "bbbbbbbbbb"},
	}

	_, err := c.Synthesize(context.Background(), companyRequest(), sources, model.SocialProfileSet{})
	require.NoError(t, err)

	req := llm.Calls[0].Arguments.Get(1).(anthropic.MessageRequest)
	assert.NotContains(t, req.Messages[0].Content, "bbbbbbbbbb")
}

func TestEdit_ReturnsUpdatedReport(t *testing.T) {
	llm := new(mockLLM)
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"overview": "Shortened.", "sources": [{"title": "About", "url": "https://acme-robotics.com/about"}]}`), nil)

	current := map[string]any{"overview": "A long overview.", "sources": []any{}}
	updated, usage, err := testClient(llm).Edit(context.Background(), current, "shorten the overview", "Acme Robotics")
	require.NoError(t, err)
	assert.Equal(t, "Shortened.", updated["overview"])
	assert.Equal(t, int64(100), usage.InputTokens)

	req := llm.Calls[0].Arguments.Get(1).(anthropic.MessageRequest)
	assert.Contains(t, req.System, "must NOT introduce facts")
	assert.Contains(t, req.Messages[0].Content, "shorten the overview")
}

func TestEdit_UnparsableReplyErrors(t *testing.T) {
	llm := new(mockLLM)
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse("I cannot edit this report."), nil)

	_, _, err := testClient(llm).Edit(context.Background(), map[string]any{"overview": "x"}, "do something", "Acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"leading prose", "Sure, here you go: {\"a\": 1}", `{"a": 1}`},
		{"trailing prose", "{\"a\": 1}\nLet me know if you need more.", `{"a": 1}`},
		{"no json", "no object here", "no object here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}
