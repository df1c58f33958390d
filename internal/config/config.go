package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" mapstructure:"retrieval"`
	Evidence   EvidenceConfig   `yaml:"evidence" mapstructure:"evidence"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Synthesis  SynthesisConfig  `yaml:"synthesis" mapstructure:"synthesis"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// JinaConfig holds Jina AI search and reader settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// RetrievalConfig bounds the fan-out and crawl stages. Several values are
// hand-tuned carries from the source system; they are configuration rather
// than constants so operators can adjust them per deployment.
type RetrievalConfig struct {
	MaxResultsPerQuery int     `yaml:"max_results_per_query" mapstructure:"max_results_per_query"`
	MaxConcurrent      int     `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	CallTimeoutSecs    int     `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
	RatePerSec         float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	PersonQueryCap     int     `yaml:"person_query_cap" mapstructure:"person_query_cap"`
	CompanyQueryCap    int     `yaml:"company_query_cap" mapstructure:"company_query_cap"`
	CrawlMaxPages      int     `yaml:"crawl_max_pages" mapstructure:"crawl_max_pages"`
	CrawlMaxDepth      int     `yaml:"crawl_max_depth" mapstructure:"crawl_max_depth"`
	CrawlMinWords      int     `yaml:"crawl_min_words" mapstructure:"crawl_min_words"`
	CrawlPollSecs      int     `yaml:"crawl_poll_secs" mapstructure:"crawl_poll_secs"`
	CrawlWaitSecs      int     `yaml:"crawl_wait_secs" mapstructure:"crawl_wait_secs"`
	MapSearchTerm      string  `yaml:"map_search_term" mapstructure:"map_search_term"`
}

// EvidenceConfig bounds the aggregation stage.
type EvidenceConfig struct {
	MinContentChars  int `yaml:"min_content_chars" mapstructure:"min_content_chars"`
	PerSourceChars   int `yaml:"per_source_chars" mapstructure:"per_source_chars"`
	TotalBudgetChars int `yaml:"total_budget_chars" mapstructure:"total_budget_chars"`
	MaxSources       int `yaml:"max_sources" mapstructure:"max_sources"`
}

// ValidationConfig tunes domain validation scoring.
type ValidationConfig struct {
	ValidityCutoff     float64 `yaml:"validity_cutoff" mapstructure:"validity_cutoff"`
	MismatchConfidence float64 `yaml:"mismatch_confidence" mapstructure:"mismatch_confidence"`
}

// SynthesisConfig configures the grounded synthesis call.
type SynthesisConfig struct {
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// CacheConfig configures the optional retrieval cache. An empty driver
// disables caching entirely.
type CacheConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"`
	DSN      string `yaml:"dsn" mapstructure:"dsn"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// PricingConfig holds per-provider rates for cost attribution.
type PricingConfig struct {
	Anthropic  map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
	Jina       JinaPricing             `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityPricing       `yaml:"perplexity" mapstructure:"perplexity"`
	Firecrawl  FirecrawlPricing        `yaml:"firecrawl" mapstructure:"firecrawl"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// JinaPricing holds Jina search/reader pricing.
type JinaPricing struct {
	PerMTok float64 `yaml:"per_mtok" mapstructure:"per_mtok"`
}

// PerplexityPricing holds Perplexity pricing.
type PerplexityPricing struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
}

// FirecrawlPricing holds Firecrawl credit pricing.
type FirecrawlPricing struct {
	PerCredit float64 `yaml:"per_credit" mapstructure:"per_credit"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port               int `yaml:"port" mapstructure:"port"`
	RequestTimeoutSecs int `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENTITYINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default empty so AutomaticEnv can populate them
	// through Unmarshal.
	v.SetDefault("jina.key", "")
	v.SetDefault("firecrawl.key", "")
	v.SetDefault("perplexity.key", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("cache.driver", "")
	v.SetDefault("cache.dsn", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_secs", 180)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("retrieval.max_results_per_query", 10)
	v.SetDefault("retrieval.max_concurrent", 5)
	v.SetDefault("retrieval.call_timeout_secs", 15)
	v.SetDefault("retrieval.rate_per_sec", 4)
	v.SetDefault("retrieval.person_query_cap", 6)
	v.SetDefault("retrieval.company_query_cap", 10)
	v.SetDefault("retrieval.crawl_max_pages", 15)
	v.SetDefault("retrieval.crawl_max_depth", 2)
	v.SetDefault("retrieval.crawl_min_words", 120)
	v.SetDefault("retrieval.crawl_poll_secs", 3)
	v.SetDefault("retrieval.crawl_wait_secs", 90)
	v.SetDefault("retrieval.map_search_term", "about team leadership contact")
	v.SetDefault("evidence.min_content_chars", 300)
	v.SetDefault("evidence.per_source_chars", 8000)
	v.SetDefault("evidence.total_budget_chars", 60000)
	v.SetDefault("evidence.max_sources", 24)
	v.SetDefault("validation.validity_cutoff", 0.5)
	v.SetDefault("validation.mismatch_confidence", 0.2)
	v.SetDefault("synthesis.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("synthesis.max_tokens", 4096)
	v.SetDefault("synthesis.temperature", 0.2)
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("pricing.jina.per_mtok", 0.02)
	v.SetDefault("pricing.perplexity.per_query", 0.005)
	v.SetDefault("pricing.firecrawl.per_credit", 0.0063)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
