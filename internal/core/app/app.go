package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"grammarbridge/internal/binding"
	"grammarbridge/internal/core/config"
	"grammarbridge/internal/engine/parser"
	"grammarbridge/internal/engine/parser/grammar"
	"grammarbridge/internal/host"
)

// App wires one binding module into a host environment.
type App struct {
	Config   *config.Config
	Module   *binding.Module
	Registry *host.Registry
	Env      *host.Env

	mu      sync.Mutex
	grammar *parser.Grammar
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	module, err := BuildModule(cfg)
	if err != nil {
		return nil, err
	}

	registry := host.NewRegistry()
	if err := module.Register(registry); err != nil {
		return nil, err
	}

	env := host.NewEnv(ctx,
		host.WithLogger(logger),
		host.WithLimits(host.Limits{
			MaxExternals: cfg.Host.MaxExternals,
			MaxExports:   cfg.Host.MaxExports,
		}),
	)

	return &App{
		Config:   cfg,
		Module:   module,
		Registry: registry,
		Env:      env,
	}, nil
}

// Load initializes the binding module, once.
func (a *App) Load() (*host.Exports, error) {
	return a.Registry.Load(a.Env, a.Module.ID)
}

// Grammar loads the module and binds a parser to its language export.
func (a *App) Grammar() (*parser.Grammar, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.grammar != nil {
		return a.grammar, nil
	}

	exports, err := a.Load()
	if err != nil {
		return nil, err
	}
	g, err := parser.FromExports(exports)
	if err != nil {
		return nil, err
	}
	a.grammar = g
	return g, nil
}

// BuildModule creates the binding module described by cfg.
func BuildModule(cfg *config.Config) (*binding.Module, error) {
	provider, err := BuildProvider(cfg.Grammar)
	if err != nil {
		return nil, err
	}
	tag, err := cfg.TypeTag()
	if err != nil {
		return nil, err
	}
	return binding.New(provider,
		binding.WithModuleID(cfg.Module.ID),
		binding.WithName(cfg.Module.Name),
		binding.WithTypeTag(tag),
	), nil
}

func BuildProvider(g config.Grammar) (grammar.Provider, error) {
	switch g.Source {
	case config.SourceStatic:
		return grammar.Static(g.Language)
	case config.SourceDynamic:
		opts := []grammar.DynamicOption{grammar.WithSymbol(g.Symbol)}
		if g.VerifyEnabled() {
			manifest, err := grammar.LoadGrammarManifest(g.Manifest)
			if err != nil {
				return nil, fmt.Errorf("load grammar manifest: %w", err)
			}
			opts = append(opts, grammar.WithManifest(filepath.Dir(g.Manifest), manifest))
		}
		return grammar.Dynamic(g.Language, g.Library, opts...), nil
	default:
		return nil, fmt.Errorf("unknown grammar source %q", g.Source)
	}
}
