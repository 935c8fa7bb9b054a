package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ashwini-1013/org-workspace/internal/adapters/badgerindex"
	"github.com/ashwini-1013/org-workspace/internal/adapters/csvsource"
	"github.com/ashwini-1013/org-workspace/internal/adapters/gemini"
	"github.com/ashwini-1013/org-workspace/internal/adapters/groq"
	"github.com/ashwini-1013/org-workspace/internal/adapters/mongoindex"
	"github.com/ashwini-1013/org-workspace/internal/adapters/ollama"
	"github.com/ashwini-1013/org-workspace/internal/adapters/resilient"
	"github.com/ashwini-1013/org-workspace/internal/adapters/sqlite"
	"github.com/ashwini-1013/org-workspace/internal/audio"
	"github.com/ashwini-1013/org-workspace/internal/config"
	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/embedding"
	"github.com/ashwini-1013/org-workspace/internal/core/ports"
	"github.com/ashwini-1013/org-workspace/internal/core/services"
	"github.com/ashwini-1013/org-workspace/internal/core/vectorindex"
	"github.com/ashwini-1013/org-workspace/internal/logging"
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg         *config.Config
	store       ports.MetadataStore
	index       ports.SimilarityIndex
	catalog     *services.Catalog
	recommender *services.Recommender
	encoder     ports.Embedder

	closers []func() error
	logger  zerolog.Logger
}

// llmBackend is what every remote language model adapter provides.
type llmBackend interface {
	ports.PreferenceExtractor
	ports.NarrativeGenerator
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, logger: logging.Component("app")}
	breaker := resilient.Settings{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
		HalfOpenRequests: cfg.Breaker.HalfOpenRequests,
	}

	// -- Metadata store
	db, err := sqlite.NewAdapter(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	a.store = resilient.NewStore(db, breaker, logging.Component("breaker"))

	// -- Similarity index
	index, err := a.openIndex(ctx)
	if err != nil {
		_ = a.close()
		return nil, err
	}
	a.index = resilient.NewIndex(index, breaker, logging.Component("breaker"))

	// -- Language model
	llm, err := newLLM(ctx, cfg.LLM)
	if err != nil {
		_ = a.close()
		return nil, err
	}
	var (
		extractor ports.PreferenceExtractor
		generator ports.NarrativeGenerator
	)
	if llm != nil {
		extractor, generator = llm, llm
	}

	a.encoder = embedding.NewEncoder()
	assembler := services.NewAssembler(a.index, a.store, a.encoder, services.AssemblerConfig{
		TopK:          cfg.Retrieval.TopK,
		Threshold:     cfg.Retrieval.SimilarityThreshold,
		MetadataLimit: cfg.Retrieval.MetadataLimit,
		MaxResults:    cfg.Retrieval.MaxResults,
	}, logging.Component("assembler"))

	a.recommender = services.NewRecommender(extractor, generator, assembler, logging.Component("recommender"),
		services.WithLLMTimeout(cfg.LLM.Timeout))
	a.catalog = services.NewCatalog(a.store)

	a.logger.Info().
		Str("index_driver", cfg.Storage.IndexDriver).
		Str("llm_provider", cfg.LLM.Provider).
		Msg("components ready")
	return a, nil
}

func (a *app) openIndex(ctx context.Context) (ports.SimilarityIndex, error) {
	s := a.cfg.Storage
	switch s.IndexDriver {
	case "memory":
		return vectorindex.New(), nil
	case "badger":
		st, err := badgerindex.Open(s.BadgerPath, logging.Component("badgerindex"))
		if err != nil {
			return nil, fmt.Errorf("open badger index: %w", err)
		}
		a.closers = append(a.closers, st.Close)
		return st, nil
	case "mongo":
		st, err := mongoindex.Connect(ctx, s.MongoURI, s.MongoDatabase, s.MongoCollection, logging.Component("mongoindex"))
		if err != nil {
			return nil, fmt.Errorf("connect mongo index: %w", err)
		}
		a.closers = append(a.closers, st.Close)
		return st, nil
	default:
		return nil, fmt.Errorf("unknown index driver: %s", s.IndexDriver)
	}
}

// newLLM returns nil for the heuristic provider.
func newLLM(ctx context.Context, c config.LLMConfig) (llmBackend, error) {
	switch c.Provider {
	case "heuristic":
		return nil, nil
	case "ollama":
		return ollama.NewClient(c.OllamaURL, c.OllamaModel), nil
	case "groq":
		cl, err := groq.NewClient(ctx, c.GroqAPIKey, c.GroqBaseURL, c.GroqModel)
		if err != nil {
			return nil, fmt.Errorf("groq client: %w", err)
		}
		return cl, nil
	case "gemini":
		cl, err := gemini.NewClient(ctx, c.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return gemini.NewGenerator(cl, c.GeminiModel), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", c.Provider)
	}
}

// newPipeline builds an ingestion pipeline capped at limit valid rows, or
// uncapped when limit is zero.
func (a *app) newPipeline(limit int) *services.IngestionPipeline {
	ic := a.cfg.Ingest
	cfg := services.IngestionConfig{
		BatchSize:   ic.BatchSize,
		RowDelay:    ic.RowDelay,
		BatchDelay:  ic.BatchDelay,
		MaxAttempts: ic.MaxAttempts,
		Waits: map[domain.BackendErrorKind]time.Duration{
			domain.KindRateLimited:  ic.RateLimitWait,
			domain.KindModelLoading: ic.ModelLoadingWait,
		},
		Limit: limit,
	}

	opts := []services.IngestionOption{services.WithIngestLogger(logging.Logger())}
	if ic.EmbedRatePerSec > 0 {
		opts = append(opts, services.WithEmbedLimiter(rate.NewLimiter(rate.Limit(ic.EmbedRatePerSec), 1)))
	}
	if ic.AnalyzePreviews {
		opts = append(opts, services.WithFeatureAnalyzer(audio.NewAnalyzer(nil)))
	}
	return services.NewIngestionPipeline(a.store, a.index, a.encoder, cfg, opts...)
}

// ingestFile reads the CSV at path and runs it through p.
func ingestFile(ctx context.Context, p *services.IngestionPipeline, path string) (services.IngestReport, error) {
	return p.RunSource(ctx, csvsource.NewFile(path))
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
