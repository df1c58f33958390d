// Package cost attributes per-provider spend to a run from its usage
// counters.
package cost

import (
	"github.com/sells-group/entity-intel/internal/config"
	"github.com/sells-group/entity-intel/internal/model"
)

// Calculator computes estimated costs for provider usage.
type Calculator struct {
	pricing config.PricingConfig
}

// NewCalculator creates a Calculator from pricing configuration. Unset
// sections fall back to the default rates.
func NewCalculator(pricing config.PricingConfig) *Calculator {
	defaults := DefaultPricing()
	if len(pricing.Anthropic) == 0 {
		pricing.Anthropic = defaults.Anthropic
	}
	if pricing.Jina.PerMTok == 0 {
		pricing.Jina = defaults.Jina
	}
	if pricing.Perplexity.PerQuery == 0 {
		pricing.Perplexity = defaults.Perplexity
	}
	if pricing.Firecrawl.PerCredit == 0 {
		pricing.Firecrawl = defaults.Firecrawl
	}
	return &Calculator{pricing: pricing}
}

// LLM computes the cost of a synthesis call. Returns 0 for models without a
// configured rate.
func (c *Calculator) LLM(modelID string, inputTokens, outputTokens int) float64 {
	rate, ok := c.pricing.Anthropic[modelID]
	if !ok {
		return 0
	}
	return (float64(inputTokens)/1e6)*rate.Input + (float64(outputTokens)/1e6)*rate.Output
}

// Search computes the cost of reader/search token usage.
func (c *Calculator) Search(tokens int) float64 {
	return (float64(tokens) / 1e6) * c.pricing.Jina.PerMTok
}

// Crawl computes the cost of crawl/scrape credits.
func (c *Calculator) Crawl(credits int) float64 {
	return float64(credits) * c.pricing.Firecrawl.PerCredit
}

// Social computes the cost of answer-engine fallback queries.
func (c *Calculator) Social(queries int) float64 {
	return float64(queries) * c.pricing.Perplexity.PerQuery
}

// Total sums the cost of a run's accumulated usage. modelID is the synthesis
// model the LLM tokens were spent on.
func (c *Calculator) Total(usage model.Usage, modelID string) float64 {
	return c.LLM(modelID, usage.LLMInputTokens, usage.LLMOutputTokens) +
		c.Search(usage.SearchTokens) +
		c.Crawl(usage.CrawlCredits) +
		c.Social(usage.PerplexityQueries)
}

// DefaultPricing returns the default provider rates.
func DefaultPricing() config.PricingConfig {
	return config.PricingConfig{
		Anthropic: map[string]config.ModelPricing{
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
			"claude-opus-4-6":            {Input: 15.00, Output: 75.00},
		},
		Jina:       config.JinaPricing{PerMTok: 0.02},
		Perplexity: config.PerplexityPricing{PerQuery: 0.005},
		Firecrawl:  config.FirecrawlPricing{PerCredit: 0.0063},
	}
}
