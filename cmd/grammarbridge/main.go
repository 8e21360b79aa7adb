// # cmd/grammarbridge/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"grammarbridge/internal/core/app"
	"grammarbridge/internal/core/config"
	"grammarbridge/internal/host/luahost"
	"grammarbridge/internal/shared/observability"
	"grammarbridge/internal/ui/cli"

	"github.com/Shopify/go-lua"
)

var (
	configPath  = flag.String("config", config.DefaultPath, "Path to config file")
	grammarName = flag.String("grammar", "", "Grammar language to bind (overrides grammar.language)")
	library     = flag.String("library", "", "Shared object to load the grammar from (implies dynamic source)")
	script      = flag.String("script", "", "Lua script to run with the module available via require")
	parseFile   = flag.String("parse", "", "Parse a file with the bound grammar and print a summary")
	metricsAddr = flag.String("metrics-addr", "", "Serve /metrics and /health on this address until interrupted")
	jsonOutput  = flag.Bool("json", false, "Print exports as JSON")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("grammarbridge v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("grammarbridge failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Observability.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				slog.Warn("tracing shutdown failed", "error", err)
			}
		}()
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	addr := cfg.Observability.MetricsAddress
	if *metricsAddr != "" {
		addr = *metricsAddr
	}
	var server *cli.ObservabilityServer
	if addr != "" {
		server = cli.NewObservabilityServer(addr, a)
		if err := server.Start(ctx); err != nil {
			return err
		}
		defer server.Stop(context.Background())
	}

	exports, err := a.Load()
	if err != nil {
		return err
	}
	if err := printExports(app.Describe(exports)); err != nil {
		return err
	}

	if *script != "" {
		l := lua.NewState()
		lua.OpenLibraries(l)
		luahost.Open(l, a.Registry, a.Env)
		if err := lua.DoFile(l, *script); err != nil {
			return fmt.Errorf("run %s: %w", *script, err)
		}
	}

	if *parseFile != "" {
		if err := parse(ctx, a, *parseFile); err != nil {
			return err
		}
	}

	if server != nil {
		slog.Info("serving observability endpoints; interrupt to exit", "addr", addr)
		<-ctx.Done()
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath != config.DefaultPath || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config %s: %w", *configPath, err)
		}
		slog.Debug("no config file found, using defaults", "path", *configPath)
		if cfg, err = config.Default(); err != nil {
			return nil, err
		}
	}

	if *grammarName != "" {
		cfg.Grammar.Language = strings.ToLower(strings.TrimSpace(*grammarName))
		if *library == "" {
			cfg.Grammar.Source = config.SourceStatic
			cfg.Grammar.Library = ""
		}
	}
	if *library != "" {
		cfg.Grammar.Source = config.SourceDynamic
		cfg.Grammar.Library = *library
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, errs[0]
	}
	return cfg, nil
}

func printExports(descs []app.ExportDescription) error {
	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(descs)
	}
	for _, d := range descs {
		switch d.Kind {
		case "external":
			fmt.Printf("%-10s external %s tag=%s trusted=%t\n", d.Key, d.Value, d.TypeTag, d.Trusted)
		default:
			fmt.Printf("%-10s %-8s %q\n", d.Key, d.Kind, d.Value)
		}
	}
	return nil
}

func parse(ctx context.Context, a *app.App, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	g, err := a.Grammar()
	if err != nil {
		return err
	}
	summary, err := g.Parse(ctx, source)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
