package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/entity-intel/pkg/anthropic"
	"github.com/sells-group/entity-intel/pkg/firecrawl"
	"github.com/sells-group/entity-intel/pkg/jina"
	"github.com/sells-group/entity-intel/pkg/perplexity"
)

// --- Jina mock ---

type mockJinaClient struct {
	mock.Mock
}

func (m *mockJinaClient) Read(ctx context.Context, targetURL string) (*jina.ReadResponse, error) {
	args := m.Called(ctx, targetURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jina.ReadResponse), args.Error(1)
}

func (m *mockJinaClient) Search(ctx context.Context, query string, opts ...jina.SearchOption) (*jina.SearchResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jina.SearchResponse), args.Error(1)
}

// --- Firecrawl mock ---

type mockFirecrawlClient struct {
	mock.Mock
}

func (m *mockFirecrawlClient) Scrape(ctx context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.ScrapeResponse), args.Error(1)
}

func (m *mockFirecrawlClient) Crawl(ctx context.Context, req firecrawl.CrawlRequest) (*firecrawl.CrawlResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.CrawlResponse), args.Error(1)
}

func (m *mockFirecrawlClient) GetCrawlStatus(ctx context.Context, id string) (*firecrawl.CrawlStatusResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.CrawlStatusResponse), args.Error(1)
}

func (m *mockFirecrawlClient) Map(ctx context.Context, req firecrawl.MapRequest) (*firecrawl.MapResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.MapResponse), args.Error(1)
}

func (m *mockFirecrawlClient) BatchScrape(ctx context.Context, req firecrawl.BatchScrapeRequest) (*firecrawl.BatchScrapeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.BatchScrapeResponse), args.Error(1)
}

func (m *mockFirecrawlClient) GetBatchScrapeStatus(ctx context.Context, id string) (*firecrawl.BatchScrapeStatusResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.BatchScrapeStatusResponse), args.Error(1)
}

// --- Perplexity mock ---

type mockPerplexityClient struct {
	mock.Mock
}

func (m *mockPerplexityClient) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*perplexity.ChatCompletionResponse), args.Error(1)
}

// --- Anthropic mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// Interface compliance checks.
var (
	_ jina.Client       = (*mockJinaClient)(nil)
	_ firecrawl.Client  = (*mockFirecrawlClient)(nil)
	_ perplexity.Client = (*mockPerplexityClient)(nil)
	_ anthropic.Client  = (*mockAnthropicClient)(nil)
)
