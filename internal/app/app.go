// Package app builds the research service from configuration. Both the HTTP
// server and the CLI start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/config"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/extract"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/llm"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/research"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/search"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/session"
	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/store"
)

// App holds the wired service and everything that must be closed with it.
type App struct {
	Service  *research.Service
	Sessions session.Store
	Registry *prometheus.Registry

	closers []func() error
}

// New validates cfg and connects every configured backend.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := research.NewMetrics(a.Registry)

	gen := llm.NewClient(llm.Options{
		APIKey:      cfg.GroqAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
	})

	provider, err := search.New(search.ProviderName(cfg.SearchProvider), cfg.SearchAPIKey())
	if err != nil {
		return nil, err
	}
	if provider == nil {
		slog.Info("web search disabled", "provider", cfg.SearchProvider, "reason", "no API key")
	}

	history, err := store.OpenHistory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, history.Close)

	switch cfg.SessionBackend {
	case "redis":
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("session backend: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		a.Sessions = session.NewRedisStore(rdb, cfg.SessionTTL)
	default:
		a.Sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	var archive store.ArchiveStore
	if cfg.MinioEndpoint != "" {
		m, err := store.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("attachment store: %w", err)
		}
		archive = m
	}

	planner, err := research.NewPlanner(gen)
	if err != nil {
		a.Close()
		return nil, err
	}
	engine := research.NewEngine(
		planner,
		research.NewSearcher(extract.NewFetcher(cfg.FetchTimeout), provider, metrics),
		research.NewWriter(gen),
		research.NewFollowUp(gen, provider, metrics),
		metrics,
	)
	a.Service = research.NewService(engine, research.NewTitler(gen), history, archive)

	slog.Info("research service ready",
		"model", cfg.LLMModel,
		"history", cfg.HistoryBackend,
		"sessions", cfg.SessionBackend,
		"archive", archive != nil,
	)
	return a, nil
}

// Close releases backends in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
