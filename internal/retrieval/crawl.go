package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/entity-intel/internal/model"
	"github.com/sells-group/entity-intel/pkg/firecrawl"
)

// Crawl performs a bounded breadth-first crawl of the entity's own site.
// Two passes feed the result set: a depth/page-capped crawl from the seed
// URL, and a map-targeted batch scrape of "about/team/leadership"-style
// pages the crawl may not reach within its depth budget. Pages below the
// minimum word count carry no grounding value and are dropped.
func (e *Executor) Crawl(ctx context.Context, seedURL string, query model.Query) []model.RawResult {
	seedURL = normalizeSeed(seedURL)
	if seedURL == "" {
		return nil
	}
	log := zap.L().With(zap.String("seed", seedURL))

	if cached, ok := e.cachedResults(ctx, crawlCacheQuery(seedURL, query)); ok {
		log.Debug("retrieval: crawl served from cache")
		return cached
	}

	pages, err := e.runCrawl(ctx, seedURL)
	if err != nil {
		log.Warn("retrieval: site crawl failed, continuing with targeted pages only", zap.Error(err))
	}

	targeted, err := e.scrapeTargetedPages(ctx, seedURL)
	if err != nil {
		log.Debug("retrieval: targeted page scrape failed", zap.Error(err))
	}
	pages = append(pages, targeted...)

	minWords := e.cfg.CrawlMinWords
	if minWords <= 0 {
		minWords = 120
	}

	seen := make(map[string]bool)
	var results []model.RawResult
	for _, p := range pages {
		if seen[p.URL] {
			continue
		}
		seen[p.URL] = true
		if wordCount(p.Markdown) < minWords {
			continue
		}
		results = append(results, model.RawResult{
			URL:     p.URL,
			Title:   p.Title,
			Content: p.Markdown,
			Links:   p.Links,
			Intent:  query.Intent,
		})
	}

	e.addUsage(model.Usage{CrawlCredits: len(pages)})
	e.storeResults(ctx, crawlCacheQuery(seedURL, query), results)

	log.Info("retrieval: crawl complete",
		zap.Int("pages", len(pages)),
		zap.Int("kept", len(results)),
	)
	return results
}

// runCrawl starts an async crawl and polls until it completes or the wait
// budget expires. A partial or timed-out crawl returns whatever pages had
// been collected by then.
func (e *Executor) runCrawl(ctx context.Context, seedURL string) ([]firecrawl.PageData, error) {
	maxPages := e.cfg.CrawlMaxPages
	if maxPages <= 0 {
		maxPages = 15
	}
	maxDepth := e.cfg.CrawlMaxDepth
	if maxDepth <= 0 {
		maxDepth = 2
	}

	start, err := e.fc.Crawl(ctx, firecrawl.CrawlRequest{
		URL:      seedURL,
		MaxDepth: maxDepth,
		Limit:    maxPages,
	})
	if err != nil {
		return nil, eris.Wrap(err, "retrieval: start crawl")
	}
	if !start.Success || start.ID == "" {
		return nil, eris.Errorf("retrieval: crawl not accepted for %s", seedURL)
	}

	pollCtx, cancel := context.WithTimeout(ctx, e.crawlWait())
	defer cancel()

	status, err := firecrawl.PollCrawl(pollCtx, e.fc, start.ID,
		firecrawl.WithPollInterval(e.crawlPoll()),
		firecrawl.WithPollCap(e.crawlPoll()),
	)
	if status == nil {
		return nil, err
	}
	return status.Data, err
}

func (e *Executor) crawlPoll() time.Duration {
	if secs := e.cfg.CrawlPollSecs; secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 3 * time.Second
}

func (e *Executor) crawlWait() time.Duration {
	if secs := e.cfg.CrawlWaitSecs; secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 90 * time.Second
}

// scrapeTargetedPages maps the site for about/team/leadership-style pages
// and batch-scrapes them.
func (e *Executor) scrapeTargetedPages(ctx context.Context, seedURL string) ([]firecrawl.PageData, error) {
	searchTerm := e.cfg.MapSearchTerm
	if searchTerm == "" {
		searchTerm = "about team leadership contact"
	}
	maxPages := e.cfg.CrawlMaxPages
	if maxPages <= 0 {
		maxPages = 15
	}

	mapped, err := e.fc.Map(ctx, firecrawl.MapRequest{
		URL:    seedURL,
		Search: searchTerm,
		Limit:  maxPages,
	})
	if err != nil {
		return nil, eris.Wrap(err, "retrieval: map site")
	}
	if len(mapped.Links) == 0 {
		return nil, nil
	}

	batch, err := e.fc.BatchScrape(ctx, firecrawl.BatchScrapeRequest{
		URLs:    mapped.Links,
		Formats: []string{"markdown", "links"},
	})
	if err != nil {
		return nil, eris.Wrap(err, "retrieval: start batch scrape")
	}
	if !batch.Success || batch.ID == "" {
		return nil, eris.New("retrieval: batch scrape not accepted")
	}

	pollCtx, cancel := context.WithTimeout(ctx, e.crawlWait())
	defer cancel()

	status, err := firecrawl.PollBatchScrape(pollCtx, e.fc, batch.ID,
		firecrawl.WithPollInterval(e.crawlPoll()),
		firecrawl.WithPollCap(e.crawlPoll()),
	)
	if err != nil {
		return nil, eris.Wrap(err, "retrieval: poll batch scrape")
	}
	return status.Data, nil
}

func crawlCacheQuery(seedURL string, query model.Query) model.Query {
	return model.Query{Text: "crawl|" + seedURL, Intent: query.Intent}
}

func normalizeSeed(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return raw
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
