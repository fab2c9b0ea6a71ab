package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"grounds/internal/compare"
	"grounds/internal/config"
	"grounds/internal/llm"
	"grounds/internal/observability"
	"grounds/internal/sections"
)

type App struct {
	Config    config.Config
	Providers []compare.ProviderSpec
	Logger    *log.Logger

	observer *observability.CompareObserver
}

func New(cfg config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}

	specs := make([]compare.ProviderSpec, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		adapter := selectAdapter(p)
		if adapter == nil {
			logger.Printf("app provider=%s kind=%s skipped: incomplete configuration", p.ID, p.Kind)
			continue
		}
		specs = append(specs, compare.ProviderSpec{
			ID:        p.ID,
			Adapter:   adapter,
			Model:     p.Model,
			Fallbacks: p.Fallbacks,
			Priority:  p.Priority,
			Enabled:   p.Enabled,
		})
	}
	if len(specs) == 0 && cfg.Dev.Mode {
		specs = append(specs, compare.ProviderSpec{ID: "dev", Adapter: llm.NewCanned("dev", ""), Enabled: true})
	}
	if len(specs) == 0 {
		return nil, errors.New("no usable providers configured")
	}

	return &App{
		Config:    cfg,
		Providers: specs,
		Logger:    logger,
		observer:  observability.NewCompareObserver(logger),
	}, nil
}

func selectAdapter(p config.Provider) llm.Adapter {
	const timeout = 120 * time.Second
	switch p.Kind {
	case "openai":
		if p.APIKey != "" {
			base := p.BaseURL
			if base == "" {
				base = "https://api.openai.com"
			}
			return llm.NewOpenAICompat(p.ID, base, p.APIKey, p.Model, timeout)
		}
	case "ollama":
		base := p.BaseURL
		if base == "" {
			base = "http://127.0.0.1:11434"
		}
		return llm.NewOllama(p.ID, base, p.Model, timeout)
	case "canned", "":
		return llm.NewCanned(p.ID, p.Model)
	}
	return nil
}

func (a *App) options() compare.Options {
	return compare.Options{
		Timeout:          a.Config.Compare.Timeout,
		Budgets:          a.Config.Compare.Budgets,
		Pinned:           a.Config.Compare.Pinned,
		RequireStructure: a.Config.Compare.RequireStructure,
		Repair:           &sections.RepairPolicy{MinActionBlocks: a.Config.Compare.MinActionBlocks},
	}
}

// Compare runs one fan-out. The only and models arguments narrow the enabled
// set and override per-provider models for this run; the configured specs are
// never mutated.
func (a *App) Compare(ctx context.Context, req llm.Request, only []string, models map[string]string) (*compare.Run, error) {
	specs := make([]compare.ProviderSpec, len(a.Providers))
	copy(specs, a.Providers)

	if len(only) > 0 {
		allowed := make(map[string]bool, len(only))
		for _, id := range only {
			allowed[id] = true
		}
		for i := range specs {
			specs[i].Enabled = specs[i].Enabled && allowed[specs[i].ID]
		}
	}
	for i := range specs {
		if m, ok := models[specs[i].ID]; ok && m != "" {
			specs[i].Model = m
		}
	}

	return compare.New(specs, a.options(), a.Logger).WithObserver(a.observer).Execute(ctx, req)
}

func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.HTTP.Addr,
		Handler:           a.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	a.Logger.Printf("app listening addr=%s providers=%d", a.Config.HTTP.Addr, len(a.Providers))
	return srv.ListenAndServe()
}
