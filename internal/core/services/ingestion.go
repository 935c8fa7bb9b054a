package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/ports"
	"github.com/ashwini-1013/org-workspace/internal/core/retry"
	"github.com/ashwini-1013/org-workspace/internal/core/textnorm"
	"github.com/ashwini-1013/org-workspace/internal/metrics"
)

// RowStatus is the final state of one catalog row.
type RowStatus string

const (
	RowIndexed      RowStatus = "indexed"
	RowMetadataOnly RowStatus = "metadata_only"
	RowSkipped      RowStatus = "skipped"
	RowFailed       RowStatus = "failed"
)

// RowOutcome records what happened to one row.
type RowOutcome struct {
	Row      int
	TrackID  string
	Status   RowStatus
	Attempts int
	Err      error
}

// IngestReport summarizes a run.
type IngestReport struct {
	RunID        string
	StartedAt    time.Time
	Duration     time.Duration
	TotalRows    int
	Indexed      int
	MetadataOnly int
	Skipped      int
	Failed       int
	Canceled     bool
	Outcomes     []RowOutcome
}

func (r *IngestReport) record(o RowOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case RowIndexed:
		r.Indexed++
	case RowMetadataOnly:
		r.MetadataOnly++
	case RowSkipped:
		r.Skipped++
	case RowFailed:
		r.Failed++
	}
	metrics.IngestRows.WithLabelValues(string(o.Status)).Inc()
}

// IngestionConfig controls pacing and the embedding retry budget.
type IngestionConfig struct {
	BatchSize   int
	RowDelay    time.Duration
	BatchDelay  time.Duration
	MaxAttempts int
	// Waits maps each retryable failure kind to the pause before the next
	// attempt. Kinds not listed are not retried.
	Waits map[domain.BackendErrorKind]time.Duration
	// Limit caps the number of valid rows processed. Zero means no cap.
	Limit int
}

// DefaultIngestionConfig returns batches of 3, 2s between rows, 10s between
// batches and up to 5 embedding attempts.
func DefaultIngestionConfig() IngestionConfig {
	return IngestionConfig{
		BatchSize:   3,
		RowDelay:    2 * time.Second,
		BatchDelay:  10 * time.Second,
		MaxAttempts: 5,
		Waits: map[domain.BackendErrorKind]time.Duration{
			domain.KindRateLimited:  5 * time.Second,
			domain.KindModelLoading: 15 * time.Second,
		},
	}
}

// IngestionOption customizes a pipeline.
type IngestionOption func(*IngestionPipeline)

// WithSleeper replaces the pause used between rows, batches and retries.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) IngestionOption {
	return func(p *IngestionPipeline) { p.sleep = sleep }
}

// WithEmbedLimiter paces embedding calls in addition to the fixed delays.
func WithEmbedLimiter(l *rate.Limiter) IngestionOption {
	return func(p *IngestionPipeline) { p.limiter = l }
}

// WithFeatureAnalyzer fills missing energy values from preview audio.
func WithFeatureAnalyzer(a ports.FeatureAnalyzer) IngestionOption {
	return func(p *IngestionPipeline) { p.analyzer = a }
}

func WithIngestLogger(l zerolog.Logger) IngestionOption {
	return func(p *IngestionPipeline) { p.logger = l.With().Str("component", "ingest").Logger() }
}

// IngestionPipeline loads catalog rows into the metadata store and the
// similarity index. It is a single writer: Run processes rows strictly one
// at a time.
type IngestionPipeline struct {
	store    ports.MetadataStore
	index    ports.SimilarityIndex
	embedder ports.Embedder
	analyzer ports.FeatureAnalyzer
	limiter  *rate.Limiter
	cfg      IngestionConfig
	sleep    func(ctx context.Context, d time.Duration) error
	logger   zerolog.Logger
}

func NewIngestionPipeline(store ports.MetadataStore, index ports.SimilarityIndex, embedder ports.Embedder, cfg IngestionConfig, opts ...IngestionOption) *IngestionPipeline {
	def := DefaultIngestionConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Waits == nil {
		cfg.Waits = def.Waits
	}
	p := &IngestionPipeline{
		store:    store,
		index:    index,
		embedder: embedder,
		cfg:      cfg,
		sleep:    retry.SleepWithContext,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type resolvedRow struct {
	row  int
	song domain.SongRecord
}

// RunSource reads every row from src and ingests them with Run.
func (p *IngestionPipeline) RunSource(ctx context.Context, src ports.CatalogSource) (IngestReport, error) {
	rows, err := src.ReadRows(ctx)
	if err != nil {
		return IngestReport{}, fmt.Errorf("ingest: read catalog: %w", err)
	}
	return p.Run(ctx, rows)
}

// Run ingests rows in source order. Invalid rows are skipped and logged;
// no single row aborts the run. Cancelling ctx stops the run between steps
// and returns the partial report with ctx's error.
func (p *IngestionPipeline) Run(ctx context.Context, rows []domain.CatalogRow) (IngestReport, error) {
	report := IngestReport{RunID: uuid.NewString(), StartedAt: time.Now(), TotalRows: len(rows)}
	log := p.logger.With().Str("run_id", report.RunID).Logger()

	valid := make([]resolvedRow, 0, len(rows))
	for i, row := range rows {
		if p.cfg.Limit > 0 && len(valid) == p.cfg.Limit {
			break
		}
		row = p.enrich(ctx, row)
		song, err := domain.SongFromRow(i, row)
		if err != nil {
			log.Warn().Err(err).Int("row", i).Msg("skipping invalid row")
			report.record(RowOutcome{Row: i, Status: RowSkipped, Err: err})
			continue
		}
		valid = append(valid, resolvedRow{row: i, song: song})
	}

	batches := (len(valid) + p.cfg.BatchSize - 1) / p.cfg.BatchSize
	log.Info().Int("rows", len(rows)).Int("valid", len(valid)).Int("batches", batches).Msg("ingestion started")

	for b := 0; b < batches; b++ {
		start := b * p.cfg.BatchSize
		end := min(start+p.cfg.BatchSize, len(valid))
		log.Info().Int("batch", b+1).Int("of", batches).Msg("processing batch")

		for j := start; j < end; j++ {
			outcome := p.ProcessSong(ctx, valid[j].row, valid[j].song)
			report.record(outcome)
			if ctx.Err() != nil {
				return p.finish(log, report, ctx.Err())
			}
			if j < end-1 {
				if err := p.sleep(ctx, p.cfg.RowDelay); err != nil {
					return p.finish(log, report, err)
				}
			}
		}

		if b < batches-1 {
			if err := p.sleep(ctx, p.cfg.BatchDelay); err != nil {
				return p.finish(log, report, err)
			}
		}
	}

	return p.finish(log, report, nil)
}

func (p *IngestionPipeline) finish(log zerolog.Logger, report IngestReport, err error) (IngestReport, error) {
	report.Duration = time.Since(report.StartedAt)
	if err != nil {
		report.Canceled = true
		log.Warn().Err(err).Int("processed", len(report.Outcomes)).Msg("ingestion interrupted")
		return report, fmt.Errorf("service: ingestion interrupted: %w", err)
	}
	log.Info().
		Int("indexed", report.Indexed).
		Int("metadata_only", report.MetadataOnly).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Dur("duration", report.Duration).
		Msg("ingestion completed")
	return report, nil
}

// ProcessSong persists one resolved song: metadata first, then its vector.
// Embedding failures leave the metadata in place.
func (p *IngestionPipeline) ProcessSong(ctx context.Context, row int, song domain.SongRecord) RowOutcome {
	log := p.logger.With().Int("row", row).Str("track_id", song.TrackID).Logger()
	outcome := RowOutcome{Row: row, TrackID: song.TrackID}

	if err := p.store.UpsertSong(ctx, song); err != nil {
		log.Error().Err(err).Msg("failed to store metadata")
		outcome.Status = RowFailed
		outcome.Err = err
		return outcome
	}
	outcome.Status = RowMetadataOnly

	if p.embedder == nil || p.index == nil {
		return outcome
	}

	text := textnorm.Normalize(strings.Join([]string{song.TrackName, song.ArtistName, song.Genre, song.Mood, domain.EmbeddingTempo(song)}, " "))
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			outcome.Err = err
			return outcome
		}
	}

	policy := retry.Policy{
		MaxAttempts: p.cfg.MaxAttempts,
		Classify:    retry.ByKind(p.cfg.Waits),
		Sleep:       p.sleep,
		Logger:      &log,
		OnRetry: func(_ int, err error, _ time.Duration) {
			var tErr *domain.TransientBackendError
			if errors.As(err, &tErr) {
				metrics.EmbedRetries.WithLabelValues(tErr.Kind.String()).Inc()
			}
		},
	}
	res, err := retry.Do(ctx, policy, func(ctx context.Context) ([]float32, error) {
		return p.embedder.Embed(ctx, text)
	})
	outcome.Attempts = res.Attempts
	if err != nil {
		log.Warn().Err(err).Int("attempts", res.Attempts).Msg("stored metadata only, embedding failed")
		outcome.Err = err
		return outcome
	}

	if err := p.index.Upsert(ctx, song.TrackID, res.Value, song); err != nil {
		log.Warn().Err(err).Msg("stored metadata only, index write failed")
		outcome.Err = err
		return outcome
	}

	outcome.Status = RowIndexed
	log.Info().Str("track", song.TrackName).Str("artist", song.ArtistName).Str("genre", song.Genre).Msg("processed")
	return outcome
}

// enrich fills a missing energy column from the preview clip when an
// analyzer is configured. The input row is not modified.
func (p *IngestionPipeline) enrich(ctx context.Context, row domain.CatalogRow) domain.CatalogRow {
	if p.analyzer == nil {
		return row
	}
	preview := row.First("preview_url")
	if preview == "" {
		return row
	}
	if _, ok := row.Number("energy"); ok {
		return row
	}
	energy, err := p.analyzer.AnalyzeEnergy(ctx, preview)
	if err != nil {
		p.logger.Warn().Err(err).Str("preview_url", preview).Msg("preview analysis failed")
		return row
	}
	out := make(domain.CatalogRow, len(row)+1)
	for k, v := range row {
		out[k] = v
	}
	out["energy"] = strconv.FormatFloat(energy, 'f', 4, 64)
	return out
}
