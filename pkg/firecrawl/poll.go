package firecrawl

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPollInitial = 2 * time.Second
	defaultPollCap     = 15 * time.Second
	defaultPollTimeout = 5 * time.Minute
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	initial time.Duration
	cap     time.Duration
	timeout time.Duration
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		initial: defaultPollInitial,
		cap:     defaultPollCap,
		timeout: defaultPollTimeout,
	}
}

// WithPollInterval overrides the initial poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.initial = d
	}
}

// WithPollCap overrides the maximum poll interval.
func WithPollCap(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.cap = d
	}
}

// WithPollTimeout overrides the default timeout (applied only if the parent
// context has no deadline).
func WithPollTimeout(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.timeout = d
	}
}

// PollCrawl polls GetCrawlStatus until the crawl completes, fails, or the
// context expires, with exponential backoff between polls. On failure or
// timeout the last observed status is returned alongside the error so
// callers can keep whatever pages the crawl had collected.
func PollCrawl(ctx context.Context, client Client, id string, opts ...PollOption) (*CrawlStatusResponse, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	var last *CrawlStatusResponse
	interval := cfg.initial
	for {
		status, err := client.GetCrawlStatus(ctx, id)
		if err != nil {
			return last, eris.Wrap(err, fmt.Sprintf("firecrawl: poll crawl %s", id))
		}
		last = status

		switch status.Status {
		case "completed":
			return status, nil
		case "failed", "cancelled":
			return status, eris.Errorf("firecrawl: crawl %s ended with status %s", id, status.Status)
		}

		select {
		case <-ctx.Done():
			return last, eris.Wrap(ctx.Err(), fmt.Sprintf("firecrawl: poll crawl %s timed out", id))
		case <-time.After(interval):
		}

		interval *= 2
		if interval > cfg.cap {
			interval = cfg.cap
		}
	}
}

// PollBatchScrape polls GetBatchScrapeStatus until the batch completes,
// fails, or the context expires, with the same backoff and partial-result
// semantics as PollCrawl.
func PollBatchScrape(ctx context.Context, client Client, id string, opts ...PollOption) (*BatchScrapeStatusResponse, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	var last *BatchScrapeStatusResponse
	interval := cfg.initial
	for {
		status, err := client.GetBatchScrapeStatus(ctx, id)
		if err != nil {
			return last, eris.Wrap(err, fmt.Sprintf("firecrawl: poll batch scrape %s", id))
		}
		last = status

		switch status.Status {
		case "completed":
			return status, nil
		case "failed", "cancelled":
			return status, eris.Errorf("firecrawl: batch scrape %s ended with status %s", id, status.Status)
		}

		select {
		case <-ctx.Done():
			return last, eris.Wrap(ctx.Err(), fmt.Sprintf("firecrawl: poll batch scrape %s timed out", id))
		case <-time.After(interval):
		}

		interval *= 2
		if interval > cfg.cap {
			interval = cfg.cap
		}
	}
}
