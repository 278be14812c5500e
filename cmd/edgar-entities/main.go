package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/edgar-entities/internal/classifier"
	"github.com/ajitpratap0/edgar-entities/internal/config"
	"github.com/ajitpratap0/edgar-entities/internal/edgar"
	"github.com/ajitpratap0/edgar-entities/internal/metrics"
	"github.com/ajitpratap0/edgar-entities/internal/oracle"
	"github.com/ajitpratap0/edgar-entities/internal/regime"
	"github.com/ajitpratap0/edgar-entities/internal/store"
)

// version is set at build time via -ldflags.
var version = "dev"

var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:     "edgar-entities",
		Short:   "Classify SEC EDGAR filers as companies, persons or regulatory regimes",
		Long:    "edgar-entities reads EDGAR daily company indexes, merges sightings per CIK and classifies each filer from its name and the forms it files.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		indexCmd(),
		classifyCmd(),
		recordsCmd(),
		statsCmd(),
		exportCmd(),
		serveCmd(),
		mcpCmd(),
		healthCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil {
		switch strings.ToLower(cfg.Logging.Level) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newMetrics registers the application collectors plus Go runtime and
// process collectors on a fresh registry.
func newMetrics() (*metrics.Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.New(reg), reg
}

// newOracle builds the configured given-name oracle. It returns a nil oracle
// when the provider is "none"; the cleanup func is always safe to call.
func newOracle(ctx context.Context, m *metrics.Metrics, logger *slog.Logger) (classifier.NameOracle, func(), error) {
	noop := func() {}

	var lookup oracle.Lookup
	switch cfg.Oracle.Provider {
	case config.OracleNone:
		return nil, noop, nil
	case config.OracleList:
		if cfg.Oracle.NamesFile == "" {
			lookup = oracle.DefaultNameList()
			break
		}
		l, err := oracle.LoadNameList(cfg.Oracle.NamesFile)
		if err != nil {
			return nil, noop, err
		}
		lookup = l
	case config.OracleClaude:
		lookup = oracle.NewClaude(cfg.Claude.APIKey, cfg.Claude.Model, logger)
	default:
		return nil, noop, fmt.Errorf("unknown oracle provider %q", cfg.Oracle.Provider)
	}

	cleanup := noop
	// A list lookup is already in memory; only remote providers are cached.
	if cfg.Oracle.Provider != config.OracleList {
		switch cfg.Oracle.Cache {
		case config.CacheMemory:
			lookup = oracle.NewCached(lookup, oracle.NewMemoryCache(), cfg.Redis.TTL, logger)
		case config.CacheRedis:
			client, err := oracle.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				return nil, noop, err
			}
			cleanup = func() { _ = client.Close() }
			lookup = oracle.NewCached(lookup, oracle.NewRedisCache(client), cfg.Redis.TTL, logger)
		}
	}

	return oracle.New(lookup, cfg.Oracle.Provider, cfg.Oracle.Timeout, m, logger), cleanup, nil
}

// newDispatcher wires the classification tables, the oracle and the regime
// resolver from configuration.
func newDispatcher(ctx context.Context, m *metrics.Metrics, logger *slog.Logger) (*classifier.Dispatcher, func(), error) {
	nameOracle, cleanup, err := newOracle(ctx, m, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("building oracle: %w", err)
	}
	tables := classifier.NewTables(cfg.Classifier.ExtraDenylist)
	text := classifier.NewTextClassifier(tables, nameOracle, logger)
	resolver := regime.NewResolver(regime.NewSignals(cfg.Classifier.RegimeSignals))
	return classifier.NewDispatcher(text, resolver), cleanup, nil
}

func newEdgarClient(m *metrics.Metrics, logger *slog.Logger) *edgar.Client {
	return edgar.NewClient(edgar.Options{
		BaseURL:           cfg.Edgar.BaseURL,
		UserAgent:         cfg.Edgar.UserAgent,
		RequestsPerSecond: cfg.Edgar.RequestsPerSecond,
		Burst:             cfg.Edgar.Burst,
		Timeout:           cfg.Edgar.Timeout,
		MaxRetries:        cfg.Edgar.MaxRetries,
	}, m, logger)
}

func newStore(m *metrics.Metrics, logger *slog.Logger) *store.MemoryStore {
	return store.NewMemoryStore(cfg.Store.Shards, cfg.Store.ClassifyWorkers, m, logger)
}

// openSnapshot loads the configured (or overridden) snapshot into a new store.
func openSnapshot(cmd *cobra.Command, path string, m *metrics.Metrics, logger *slog.Logger) (*store.MemoryStore, *store.Snapshot, error) {
	if path == "" {
		path = cfg.Store.SnapshotPath
	}
	st := newStore(m, logger)
	snap, err := store.LoadInto(cmd.Context(), path, st)
	if err != nil {
		return nil, nil, fmt.Errorf("loading snapshot (run `edgar-entities run` or `index` first): %w", err)
	}
	return st, snap, nil
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
