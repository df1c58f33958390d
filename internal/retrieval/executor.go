// Package retrieval fans enrichment queries out to the search, scrape, and
// crawl providers with bounded concurrency and per-call timeouts.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/entity-intel/internal/config"
	"github.com/sells-group/entity-intel/internal/model"
	"github.com/sells-group/entity-intel/internal/resilience"
	"github.com/sells-group/entity-intel/internal/store"
	"github.com/sells-group/entity-intel/pkg/firecrawl"
	"github.com/sells-group/entity-intel/pkg/jina"
	"github.com/sells-group/entity-intel/pkg/perplexity"
)

// Executor runs planned queries against the providers. The only shared state
// during fan-out is a per-query result slot and a mutex-guarded usage
// accumulator; batches are merged after all launched calls return.
type Executor struct {
	cfg     config.RetrievalConfig
	search  jina.Client
	fc      firecrawl.Client
	pplx    perplexity.Client
	cache   store.Store // optional
	limiter *rate.Limiter

	mu    sync.Mutex
	usage model.Usage
}

// NewExecutor creates an executor. The cache store may be nil.
func NewExecutor(cfg config.RetrievalConfig, search jina.Client, fc firecrawl.Client, pplx perplexity.Client, cache store.Store) *Executor {
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 4
	}
	return &Executor{
		cfg:     cfg,
		search:  search,
		fc:      fc,
		pplx:    pplx,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Usage returns the accumulated provider consumption since construction.
func (e *Executor) Usage() model.Usage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.usage
}

func (e *Executor) addUsage(u model.Usage) {
	e.mu.Lock()
	e.usage.Add(u)
	e.mu.Unlock()
}

// Execute runs all queries concurrently. Each query gets its own result
// slot, so batch order always mirrors query submission order regardless of
// completion order. A failed or timed-out query yields an empty batch; the
// aggregator works with whatever evidence arrives.
func (e *Executor) Execute(ctx context.Context, queries []model.Query, countryHint string) []model.Batch {
	batches := make([]model.Batch, len(queries))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent())

	for i, q := range queries {
		batches[i] = model.Batch{Query: q}
		g.Go(func() error {
			results := e.runQuery(gCtx, q, countryHint)
			batches[i].Results = results
			return nil
		})
	}

	// Individual failures are absorbed per query; nothing to propagate.
	_ = g.Wait()

	return batches
}

func (e *Executor) runQuery(ctx context.Context, q model.Query, countryHint string) []model.RawResult {
	log := zap.L().With(zap.String("query", q.Text), zap.String("intent", string(q.Intent)))

	if cached, ok := e.cachedResults(ctx, q); ok {
		log.Debug("retrieval: query served from cache")
		return cached
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout())
	defer cancel()

	var results []model.RawResult
	var err error
	if q.Intent == model.IntentDirect {
		results, err = e.directLookup(callCtx, q)
	} else {
		results, err = e.searchQuery(callCtx, q, countryHint)
	}
	if err != nil {
		log.Debug("retrieval: query failed, continuing with partial evidence", zap.Error(err))
		return nil
	}

	e.storeResults(ctx, q, results)
	log.Debug("retrieval: query complete", zap.Int("results", len(results)))
	return results
}

// searchQuery executes one web search with transient-error retry.
func (e *Executor) searchQuery(ctx context.Context, q model.Query, countryHint string) ([]model.RawResult, error) {
	var resp *jina.SearchResponse
	err := resilience.Do(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
		var opts []jina.SearchOption
		if countryHint != "" {
			opts = append(opts, jina.WithCountry(countryHint))
		}
		var searchErr error
		resp, searchErr = e.search.Search(ctx, q.Text, opts...)
		return searchErr
	})
	if err != nil {
		return nil, err
	}

	limit := e.cfg.MaxResultsPerQuery
	if limit <= 0 {
		limit = 10
	}

	var results []model.RawResult
	var tokens int
	for _, r := range resp.Data {
		if len(results) >= limit {
			break
		}
		tokens += r.Usage.Tokens
		results = append(results, model.RawResult{
			URL:     r.URL,
			Title:   r.Title,
			Content: firstNonEmpty(r.Content, r.Description),
			Intent:  q.Intent,
		})
	}
	e.addUsage(model.Usage{SearchTokens: tokens})
	return results, nil
}

// directLookup fetches a known profile URL through the reader instead of
// searching for it.
func (e *Executor) directLookup(ctx context.Context, q model.Query) ([]model.RawResult, error) {
	resp, err := e.search.Read(ctx, q.Text)
	if err != nil {
		return nil, err
	}
	e.addUsage(model.Usage{SearchTokens: resp.Data.Usage.Tokens})
	return []model.RawResult{{
		URL:     firstNonEmpty(resp.Data.URL, q.Text),
		Title:   resp.Data.Title,
		Content: resp.Data.Content,
		Links:   resp.Data.Links,
		Intent:  q.Intent,
	}}, nil
}

// SocialFallback asks the Perplexity provider for an entity's social profile
// URLs when web search produced nothing for the social-discovery query. The
// answer becomes a synthetic result attributed to its citations.
func (e *Executor) SocialFallback(ctx context.Context, entityName, companyHint string) []model.RawResult {
	if e.pplx == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout())
	defer cancel()

	temp := 0.2
	prompt := fmt.Sprintf(
		"Find the public social media and professional profile URLs for %q", entityName)
	if companyHint != "" {
		prompt += fmt.Sprintf(" (%s)", companyHint)
	}
	prompt += ". List the LinkedIn, Twitter/X, GitHub, and personal website URLs you can verify, one per line, with a one-sentence note each."

	resp, err := e.pplx.ChatCompletion(callCtx, perplexity.ChatCompletionRequest{
		Messages:    []perplexity.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Debug("retrieval: social fallback failed", zap.Error(err))
		return nil
	}
	if len(resp.Choices) == 0 {
		return nil
	}

	e.addUsage(model.Usage{PerplexityQueries: 1})

	content := resp.Choices[0].Message.Content
	var results []model.RawResult
	for _, cite := range resp.Citations {
		results = append(results, model.RawResult{
			URL:    cite,
			Title:  entityName + " profile",
			Intent: model.IntentSocial,
		})
	}
	results = append(results, model.RawResult{
		URL:     "perplexity:social/" + slug(entityName),
		Title:   "Social profile research: " + entityName,
		Content: content,
		Links:   resp.Citations,
		Intent:  model.IntentSocial,
	})
	return results
}

func (e *Executor) cachedResults(ctx context.Context, q model.Query) ([]model.RawResult, bool) {
	if e.cache == nil {
		return nil, false
	}
	results, err := e.cache.GetBatch(ctx, cacheKey(q))
	if err != nil {
		zap.L().Debug("retrieval: cache lookup failed", zap.Error(err))
		return nil, false
	}
	return results, results != nil
}

func (e *Executor) storeResults(ctx context.Context, q model.Query, results []model.RawResult) {
	if e.cache == nil || len(results) == 0 {
		return
	}
	if err := e.cache.SetBatch(ctx, cacheKey(q), results, 0); err != nil {
		zap.L().Debug("retrieval: cache store failed", zap.Error(err))
	}
}

func cacheKey(q model.Query) string {
	return string(q.Intent) + "|" + q.Text
}

func (e *Executor) callTimeout() time.Duration {
	secs := e.cfg.CallTimeoutSecs
	if secs <= 0 {
		secs = 15
	}
	return time.Duration(secs) * time.Second
}

func (e *Executor) maxConcurrent() int {
	if e.cfg.MaxConcurrent <= 0 {
		return 5
	}
	return e.cfg.MaxConcurrent
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
