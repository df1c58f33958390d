package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/entity-intel/internal/config"
	"github.com/sells-group/entity-intel/internal/model"
	"github.com/sells-group/entity-intel/internal/store"
	"github.com/sells-group/entity-intel/pkg/jina"
	"github.com/sells-group/entity-intel/pkg/perplexity"
)

func testRetrievalConfig() config.RetrievalConfig {
	return config.RetrievalConfig{
		MaxResultsPerQuery: 10,
		MaxConcurrent:      5,
		CallTimeoutSecs:    5,
		RatePerSec:         1000, // effectively unlimited in tests
		CrawlMaxPages:      5,
		CrawlMaxDepth:      2,
		CrawlMinWords:      10,
		CrawlPollSecs:      1,
		CrawlWaitSecs:      5,
	}
}

func searchResponse(results ...jina.SearchResult) *jina.SearchResponse {
	return &jina.SearchResponse{Code: 200, Data: results}
}

func TestExecuteSlotOrderMatchesQueryOrder(t *testing.T) {
	search := new(mockJinaClient)
	// The slow query is submitted first but completes last; its batch must
	// still land in slot zero.
	search.On("Search", mock.Anything, "slow query").
		After(50*time.Millisecond).
		Return(searchResponse(jina.SearchResult{URL: "https://slow.example.com", Title: "Slow"}), nil)
	search.On("Search", mock.Anything, "fast query").
		Return(searchResponse(jina.SearchResult{URL: "https://fast.example.com", Title: "Fast"}), nil)

	e := NewExecutor(testRetrievalConfig(), search, new(mockFirecrawlClient), nil, nil)
	batches := e.Execute(context.Background(), []model.Query{
		{Text: "slow query", Intent: model.IntentOverview},
		{Text: "fast query", Intent: model.IntentNews},
	}, "")

	require.Len(t, batches, 2)
	assert.Equal(t, "slow query", batches[0].Query.Text)
	require.Len(t, batches[0].Results, 1)
	assert.Equal(t, "https://slow.example.com", batches[0].Results[0].URL)
	assert.Equal(t, "fast query", batches[1].Query.Text)
}

func TestExecutePartialFailureYieldsEmptyBatch(t *testing.T) {
	search := new(mockJinaClient)
	search.On("Search", mock.Anything, "bad query").
		Return(nil, eris.New("jina: HTTP 500"))
	search.On("Search", mock.Anything, mock.Anything).
		Return(searchResponse(jina.SearchResult{URL: "https://ok.example.com", Title: "OK", Content: "text"}), nil)

	e := NewExecutor(testRetrievalConfig(), search, new(mockFirecrawlClient), nil, nil)
	batches := e.Execute(context.Background(), []model.Query{
		{Text: "bad query", Intent: model.IntentFinancials},
		{Text: "good query", Intent: model.IntentOverview},
	}, "")

	require.Len(t, batches, 2)
	assert.Empty(t, batches[0].Results)
	require.Len(t, batches[1].Results, 1)
}

func TestExecuteResultLimitPerQuery(t *testing.T) {
	var many []jina.SearchResult
	for range 15 {
		many = append(many, jina.SearchResult{URL: "https://example.com", Title: "t"})
	}
	search := new(mockJinaClient)
	search.On("Search", mock.Anything, mock.Anything).Return(searchResponse(many...), nil)

	cfg := testRetrievalConfig()
	cfg.MaxResultsPerQuery = 3
	e := NewExecutor(cfg, search, new(mockFirecrawlClient), nil, nil)

	batches := e.Execute(context.Background(), []model.Query{{Text: "q", Intent: model.IntentNews}}, "")
	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Results, 3)
}

func TestExecuteTagsResultsWithQueryIntent(t *testing.T) {
	search := new(mockJinaClient)
	search.On("Search", mock.Anything, mock.Anything).
		Return(searchResponse(jina.SearchResult{URL: "https://example.com", Content: "body", Description: "desc"}), nil)

	e := NewExecutor(testRetrievalConfig(), search, new(mockFirecrawlClient), nil, nil)
	batches := e.Execute(context.Background(), []model.Query{{Text: "q", Intent: model.IntentLeadership}}, "")

	require.Len(t, batches[0].Results, 1)
	assert.Equal(t, model.IntentLeadership, batches[0].Results[0].Intent)
	assert.Equal(t, "body", batches[0].Results[0].Content)
}

func TestExecuteFallsBackToDescriptionWhenContentEmpty(t *testing.T) {
	search := new(mockJinaClient)
	search.On("Search", mock.Anything, mock.Anything).
		Return(searchResponse(jina.SearchResult{URL: "https://example.com", Description: "just a snippet"}), nil)

	e := NewExecutor(testRetrievalConfig(), search, new(mockFirecrawlClient), nil, nil)
	batches := e.Execute(context.Background(), []model.Query{{Text: "q", Intent: model.IntentNews}}, "")

	require.Len(t, batches[0].Results, 1)
	assert.Equal(t, "just a snippet", batches[0].Results[0].Content)
}

func TestDirectLookupUsesReader(t *testing.T) {
	search := new(mockJinaClient)
	search.On("Read", mock.Anything, "https://linkedin.com/in/janedoe").
		Return(&jina.ReadResponse{Code: 200, Data: jina.ReadData{
			Title:   "Jane Doe | LinkedIn",
			URL:     "https://linkedin.com/in/janedoe",
			Content: "Jane Doe. VP Engineering at Acme Robotics.",
			Links:   []string{"https://github.com/janedoe"},
			Usage:   jina.ReadUsage{Tokens: 420},
		}}, nil)

	e := NewExecutor(testRetrievalConfig(), search, new(mockFirecrawlClient), nil, nil)
	batches := e.Execute(context.Background(), []model.Query{
		{Text: "https://linkedin.com/in/janedoe", Intent: model.IntentDirect},
	}, "")

	require.Len(t, batches[0].Results, 1)
	got := batches[0].Results[0]
	assert.Equal(t, "https://linkedin.com/in/janedoe", got.URL)
	assert.Equal(t, []string{"https://github.com/janedoe"}, got.Links)
	search.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)

	assert.Equal(t, 420, e.Usage().SearchTokens)
}

func TestExecuteServesRepeatQueryFromCache(t *testing.T) {
	cache, err := store.NewSQLite(t.TempDir()+"/cache.db", time.Hour)
	require.NoError(t, err)
	require.NoError(t, cache.Migrate(context.Background()))
	defer cache.Close()

	search := new(mockJinaClient)
	search.On("Search", mock.Anything, mock.Anything).
		Return(searchResponse(jina.SearchResult{URL: "https://example.com", Title: "cached", Content: "body"}), nil).
		Once()

	e := NewExecutor(testRetrievalConfig(), search, new(mockFirecrawlClient), nil, cache)
	queries := []model.Query{{Text: "acme robotics overview", Intent: model.IntentOverview}}

	first := e.Execute(context.Background(), queries, "")
	second := e.Execute(context.Background(), queries, "")

	require.Len(t, first[0].Results, 1)
	assert.Equal(t, first[0].Results, second[0].Results)
	search.AssertNumberOfCalls(t, "Search", 1)
}

func TestSocialFallbackBuildsSyntheticResult(t *testing.T) {
	pplx := new(mockPerplexityClient)
	pplx.On("ChatCompletion", mock.Anything, mock.Anything).
		Return(&perplexity.ChatCompletionResponse{
			Choices: []perplexity.Choice{{Message: perplexity.Message{
				Role:    "assistant",
				Content: "LinkedIn: https://linkedin.com/in/janedoe",
			}}},
			Citations: []string{"https://linkedin.com/in/janedoe"},
		}, nil)

	e := NewExecutor(testRetrievalConfig(), new(mockJinaClient), new(mockFirecrawlClient), pplx, nil)
	results := e.SocialFallback(context.Background(), "Jane Doe", "Acme Robotics")

	require.Len(t, results, 2)
	assert.Equal(t, "https://linkedin.com/in/janedoe", results[0].URL)
	assert.Equal(t, model.IntentSocial, results[0].Intent)
	assert.Equal(t, "perplexity:social/jane-doe", results[1].URL)
	assert.Contains(t, results[1].Content, "linkedin.com/in/janedoe")
	assert.Equal(t, 1, e.Usage().PerplexityQueries)
}

func TestSocialFallbackWithoutProviderReturnsNil(t *testing.T) {
	e := NewExecutor(testRetrievalConfig(), new(mockJinaClient), new(mockFirecrawlClient), nil, nil)
	assert.Nil(t, e.SocialFallback(context.Background(), "Jane Doe", ""))
}

func TestSocialFallbackProviderErrorReturnsNil(t *testing.T) {
	pplx := new(mockPerplexityClient)
	pplx.On("ChatCompletion", mock.Anything, mock.Anything).
		Return(nil, eris.New("perplexity: HTTP 429"))

	e := NewExecutor(testRetrievalConfig(), new(mockJinaClient), new(mockFirecrawlClient), pplx, nil)
	assert.Nil(t, e.SocialFallback(context.Background(), "Jane Doe", ""))
	assert.Zero(t, e.Usage().PerplexityQueries)
}

func TestUsageAccumulatesAcrossQueries(t *testing.T) {
	search := new(mockJinaClient)
	search.On("Search", mock.Anything, mock.Anything).
		Return(searchResponse(jina.SearchResult{
			URL: "https://example.com", Content: "x",
			Usage: jina.ReadUsage{Tokens: 100},
		}), nil)

	e := NewExecutor(testRetrievalConfig(), search, new(mockFirecrawlClient), nil, nil)
	e.Execute(context.Background(), []model.Query{
		{Text: "a", Intent: model.IntentOverview},
		{Text: "b", Intent: model.IntentNews},
	}, "")

	assert.Equal(t, 200, e.Usage().SearchTokens)
}
