package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/entity-intel/internal/pipeline"
	"github.com/sells-group/entity-intel/internal/resolver"
	"github.com/sells-group/entity-intel/internal/retrieval"
	"github.com/sells-group/entity-intel/internal/store"
	"github.com/sells-group/entity-intel/internal/synthesis"
	"github.com/sells-group/entity-intel/pkg/anthropic"
	"github.com/sells-group/entity-intel/pkg/firecrawl"
	"github.com/sells-group/entity-intel/pkg/jina"
	"github.com/sells-group/entity-intel/pkg/perplexity"
)

// env bundles the wired pipeline and its closeable resources.
type env struct {
	Pipeline *pipeline.Pipeline
	cache    store.Store
}

// initPipeline builds all provider clients and wires the pipeline from
// configuration.
func initPipeline(ctx context.Context) (*env, error) {
	if cfg.Jina.Key == "" {
		return nil, eris.New("jina API key not configured (ENTITYINTEL_JINA_KEY)")
	}
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key not configured (ENTITYINTEL_ANTHROPIC_KEY)")
	}

	jinaClient := jina.NewClient(cfg.Jina.Key,
		jina.WithBaseURL(cfg.Jina.BaseURL),
		jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL),
	)
	fcClient := firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))

	var pplxClient perplexity.Client
	if cfg.Perplexity.Key != "" {
		pplxClient = perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
	} else {
		zap.L().Info("perplexity key not configured, social fallback disabled")
	}

	cache, err := store.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		if removed, err := cache.DeleteExpired(ctx); err == nil && removed > 0 {
			zap.L().Debug("purged expired cache entries", zap.Int("removed", removed))
		}
	}

	validator, err := resolver.NewValidator(cfg.Validation)
	if err != nil {
		return nil, err
	}

	executor := retrieval.NewExecutor(cfg.Retrieval, jinaClient, fcClient, pplxClient, cache)
	synth := synthesis.NewClient(anthropic.NewClient(cfg.Anthropic.Key), cfg.Synthesis, cfg.Evidence.TotalBudgetChars)

	return &env{
		Pipeline: pipeline.New(cfg, executor, validator, synth),
		cache:    cache,
	}, nil
}

// Close releases held resources.
func (e *env) Close() {
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			zap.L().Warn("close cache store", zap.Error(err))
		}
	}
}
