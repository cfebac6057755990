// Command ordercore is the main entry point for the Ordercore drive-thru
// order normalization engine. It reads one customer conversation from a
// transcript (or a pre-extracted mention stream), processes each turn through
// the engine, and prints the final normalized order record as JSON.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pourlane/ordercore/internal/catalog"
	"github.com/pourlane/ordercore/internal/catalog/pgcatalog"
	"github.com/pourlane/ordercore/internal/config"
	"github.com/pourlane/ordercore/internal/engine"
	"github.com/pourlane/ordercore/internal/health"
	"github.com/pourlane/ordercore/internal/observe"
	"github.com/pourlane/ordercore/internal/order"
	"github.com/pourlane/ordercore/internal/resilience"
	"github.com/pourlane/ordercore/internal/taxonomy"
	"github.com/pourlane/ordercore/pkg/provider/embeddings"
	oaembed "github.com/pourlane/ordercore/pkg/provider/embeddings/openai"
	"github.com/pourlane/ordercore/pkg/provider/extract"
	"github.com/pourlane/ordercore/pkg/provider/extract/anyllm"
	"github.com/pourlane/ordercore/pkg/provider/similarity"
	embeddingsim "github.com/pourlane/ordercore/pkg/provider/similarity/embedding"
	pgvectorsim "github.com/pourlane/ordercore/pkg/provider/similarity/pgvector"
	"github.com/pourlane/ordercore/pkg/types"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	inputPath := flag.String("input", "-", "conversation input file; \"-\" reads from stdin")
	inputFormat := flag.String("format", "transcript", `input format: "transcript" (one customer turn per line, requires an extraction provider) or "mentions" (one JSON mention array per line)`)
	flag.Parse()

	if *inputFormat != "transcript" && *inputFormat != "mentions" {
		fmt.Fprintf(os.Stderr, "ordercore: unknown -format %q; use \"transcript\" or \"mentions\"\n", *inputFormat)
		return 1
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "ordercore: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "ordercore: %v\n", err)
		}
		return 1
	}
	config.ApplyDefaults(cfg)

	// ── Logger ────────────────────────────────────────────────────────────────
	logger, logLevel := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("ordercore starting",
		"config", *configPath,
		"catalog_source", cfg.Catalog.Source,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── PostgreSQL pool ───────────────────────────────────────────────────────
	// Shared by the pgcatalog source and the pgvector similarity ranker.
	var pool *pgxpool.Pool
	if cfg.Catalog.PostgresDSN != "" {
		pool, err = pgxpool.New(ctx, cfg.Catalog.PostgresDSN)
		if err != nil {
			slog.Error("failed to create postgres pool", "err", err)
			return 1
		}
		defer pool.Close()
	}

	// ── Catalog ───────────────────────────────────────────────────────────────
	idx, taxonomyEntries, err := loadCatalog(ctx, cfg, pool)
	if err != nil {
		slog.Error("failed to load catalog", "err", err)
		return 1
	}
	slog.Info("catalog loaded", "products", idx.Len())

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "ordercore"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}

	var metricsSrv *http.Server
	if cfg.Server.MetricsListenAddr != "" {
		metricsSrv = newMetricsServer(cfg, idx, pool)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "err", err)
			}
		}()
		slog.Info("metrics server listening", "addr", cfg.Server.MetricsListenAddr)
	}

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	extractor, ranker, err := buildProviders(ctx, cfg, reg, idx, pool)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}
	if *inputFormat == "transcript" && extractor == nil {
		slog.Error("transcript input requires a configured extraction provider",
			"hint", "set providers.extraction in the config, or pass -format mentions")
		return 1
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	opts := []engine.Option{
		engine.WithMinConfidence(cfg.Matching.MinConfidence),
		engine.WithPhoneticThreshold(cfg.Matching.PhoneticThreshold),
		engine.WithOverlapThreshold(cfg.Taxonomy.OverlapThreshold),
		engine.WithConfidenceThresholds(cfg.Confidence.ConfirmThreshold, cfg.Confidence.ReviewThreshold),
		engine.WithConfidenceBonuses(cfg.Confidence.SizeBonus, cfg.Confidence.TemperatureBonus),
		engine.WithMetrics(observe.DefaultMetrics()),
	}
	if len(taxonomyEntries) > 0 {
		opts = append(opts, engine.WithTaxonomy(taxonomyEntries))
	}
	if ranker != nil {
		opts = append(opts, engine.WithRanker(ranker))
	}
	eng := engine.New(idx, opts...)

	// ── Config hot reload ─────────────────────────────────────────────────────
	// Only the log level is applied live; threshold and catalog changes take
	// effect on restart.
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			logLevel.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
		if d.ThresholdsChanged {
			slog.Warn("matching thresholds changed on disk; restart to apply")
		}
		if d.CatalogChanged {
			slog.Warn("catalog configuration changed on disk; restart to apply")
		}
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── Process the conversation ──────────────────────────────────────────────
	record, err := processConversation(ctx, eng, extractor, *inputPath, *inputFormat)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("conversation failed", "err", err)
		return 1
	}

	if record != nil {
		out, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			slog.Error("failed to encode order record", "err", err)
			return 1
		}
		fmt.Println(string(out))
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown error", "err", err)
		}
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return 0
}

// ── Conversation loop ─────────────────────────────────────────────────────────

// processConversation reads turns from inputPath until EOF, feeds them through
// one engine conversation, and returns the finalized order record. Turn-level
// errors (ambiguous references, malformed mentions) are logged and skipped;
// state committed by earlier turns is kept.
func processConversation(ctx context.Context, eng *engine.Engine, extractor extract.Provider, inputPath, format string) (*order.Record, error) {
	var in io.Reader = os.Stdin
	if inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	ctx, span := observe.StartSpan(ctx, "conversation")
	defer span.End()
	log := observe.Logger(ctx)
	metrics := observe.DefaultMetrics()

	conv := eng.NewConversation(ctx)
	scanner := bufio.NewScanner(in)
	turn := 0

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		turn++

		var mentions []types.RawMention
		var err error
		switch format {
		case "mentions":
			if err = json.Unmarshal([]byte(line), &mentions); err != nil {
				log.Warn("skipping malformed mention line", "turn", turn, "err", err)
				continue
			}
			for i := range mentions {
				mentions[i].TurnIndex = turn
			}
		default:
			start := time.Now()
			mentions, err = extractor.Extract(ctx, line, turn)
			metrics.ExtractionDuration.Record(ctx, time.Since(start).Seconds())
			if err != nil {
				log.Warn("extraction failed, skipping turn", "turn", turn, "err", err)
				continue
			}
		}

		if err := conv.ProcessTurn(ctx, mentions); err != nil {
			log.Warn("turn rejected", "turn", turn, "err", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	log.Info("conversation finished", "turns", turn, "correlation_id", observe.CorrelationID(ctx))

	record, err := conv.Finalize(ctx)
	if err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}
	return &record, nil
}

// ── Catalog loading ───────────────────────────────────────────────────────────

func loadCatalog(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (*catalog.Index, []taxonomy.Entry, error) {
	switch cfg.Catalog.Source {
	case config.CatalogSourcePostgres:
		if pool == nil {
			return nil, nil, fmt.Errorf("catalog source %q requires catalog.postgres_dsn", cfg.Catalog.Source)
		}
		src := pgcatalog.New(pool)
		if err := src.Migrate(ctx); err != nil {
			return nil, nil, fmt.Errorf("migrate catalog schema: %w", err)
		}
		idx, err := src.LoadIndex(ctx)
		if err != nil {
			return nil, nil, err
		}
		// The postgres source stores products only; modifier vocabulary
		// comes from the built-in taxonomy.
		return idx, nil, nil
	default:
		cf, err := catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return nil, nil, err
		}
		idx, err := cf.BuildIndex()
		if err != nil {
			return nil, nil, err
		}
		return idx, cf.TaxonomyEntries(), nil
	}
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the provider
// from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── Extraction ────────────────────────────────────────────────────────────
	// The hosted backends share the same pattern: optional APIKey + optional
	// BaseURL.
	for _, providerName := range []string{
		"openai", "anthropic", "gemini",
		"deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterExtraction(providerName, func(entry config.ProviderEntry) (extract.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterExtraction("ollama", func(entry config.ProviderEntry) (extract.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── Embeddings ────────────────────────────────────────────────────────────

	reg.RegisterEmbeddings("openai", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		return oaembed.New(entry.APIKey, entry.Model, opts...)
	})
}

// buildProviders instantiates the providers named in cfg. A missing provider
// name disables that capability rather than failing startup: the engine runs
// without a semantic tier when no similarity ranker is configured, and
// "-format mentions" input works without an extractor.
//
// The similarity factories are registered here rather than in
// registerBuiltinProviders because both rankers sit on top of whichever
// embeddings provider the config selected.
func buildProviders(ctx context.Context, cfg *config.Config, reg *config.Registry, idx *catalog.Index, pool *pgxpool.Pool) (extract.Provider, similarity.Ranker, error) {
	var extractor extract.Provider
	if name := cfg.Providers.Extraction.Name; name != "" {
		p, err := reg.CreateExtraction(cfg.Providers.Extraction)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Warn("unknown extraction provider — skipping", "name", name)
		} else if err != nil {
			return nil, nil, fmt.Errorf("create extraction provider %q: %w", name, err)
		} else {
			extractor = p
			slog.Info("provider created", "kind", "extraction", "name", name, "model", cfg.Providers.Extraction.Model)
		}
	}
	if extractor != nil {
		fb := resilience.NewExtractFallback(extractor, cfg.Providers.Extraction.Name, resilience.FallbackConfig{})
		for _, entry := range cfg.Providers.ExtractionFallbacks {
			p, err := reg.CreateExtraction(entry)
			if err != nil {
				return nil, nil, fmt.Errorf("create extraction fallback %q: %w", entry.Name, err)
			}
			fb.AddFallback(entry.Name, p)
			slog.Info("provider created", "kind", "extraction-fallback", "name", entry.Name, "model", entry.Model)
		}
		extractor = fb
	}

	var emb embeddings.Provider
	if name := cfg.Providers.Embeddings.Name; name != "" {
		p, err := reg.CreateEmbeddings(cfg.Providers.Embeddings)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Warn("unknown embeddings provider — skipping", "name", name)
		} else if err != nil {
			return nil, nil, fmt.Errorf("create embeddings provider %q: %w", name, err)
		} else {
			emb = p
			slog.Info("provider created", "kind", "embeddings", "name", name, "model", cfg.Providers.Embeddings.Model)
		}
	}

	reg.RegisterSimilarity("embedding", func(config.ProviderEntry) (similarity.Ranker, error) {
		if emb == nil {
			return nil, errors.New("similarity ranking requires a configured embeddings provider")
		}
		return embeddingsim.New(emb)
	})
	reg.RegisterSimilarity("pgvector", func(config.ProviderEntry) (similarity.Ranker, error) {
		if pool == nil {
			return nil, fmt.Errorf(`similarity provider "pgvector" requires catalog.postgres_dsn`)
		}
		if emb == nil {
			return nil, errors.New("similarity ranking requires a configured embeddings provider")
		}
		return pgvectorsim.New(pool, emb)
	})

	var ranker similarity.Ranker
	if name := cfg.Providers.Similarity.Name; name != "" {
		r, err := reg.CreateSimilarity(cfg.Providers.Similarity)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Warn("unknown similarity provider — skipping", "name", name)
		} else if err != nil {
			return nil, nil, fmt.Errorf("create similarity provider %q: %w", name, err)
		} else {
			ranker = r
			slog.Info("provider created", "kind", "similarity", "name", name)
		}
	}

	// Pre-load catalog names so the first semantic lookup does not pay the
	// full embedding cost.
	switch r := ranker.(type) {
	case *embeddingsim.Ranker:
		if err := r.Warm(ctx, idx.Names()); err != nil {
			slog.Warn("embedding cache warm-up failed", "err", err)
		}
	case *pgvectorsim.Ranker:
		if err := r.Migrate(ctx); err != nil {
			return nil, nil, fmt.Errorf("migrate pgvector schema: %w", err)
		}
		if err := r.IndexNames(ctx, idx.Names()); err != nil {
			slog.Warn("pgvector name indexing failed", "err", err)
		}
	}

	return extractor, ranker, nil
}

// ── Metrics & health endpoints ────────────────────────────────────────────────

func newMetricsServer(cfg *config.Config, idx *catalog.Index, pool *pgxpool.Pool) *http.Server {
	checkers := []health.Checker{
		{
			Name: "catalog",
			Check: func(context.Context) error {
				if idx.Len() == 0 {
					return errors.New("catalog index is empty")
				}
				return nil
			},
		},
	}
	if pool != nil {
		checkers = append(checkers, health.Checker{Name: "database", Check: pool.Ping})
	}

	mux := http.NewServeMux()
	health.New(checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return &http.Server{
		Addr:              cfg.Server.MetricsListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ── Logger ────────────────────────────────────────────────────────────────────

// newLogger builds the process logger. The returned LevelVar lets the config
// watcher change the level without replacing the handler.
func newLogger(level config.LogLevel) (*slog.Logger, *slog.LevelVar) {
	lvl := new(slog.LevelVar)
	lvl.Set(slogLevel(level))
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), lvl
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
