package services

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/ports"
	"github.com/ashwini-1013/org-workspace/internal/metrics"
)

// AssemblerConfig bounds the two retrieval paths.
type AssemblerConfig struct {
	TopK          int
	Threshold     float64
	MetadataLimit int
	MaxResults    int
}

// DefaultAssemblerConfig returns topK 5, threshold 0.7, metadata limit 15 and
// at most 10 merged results.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{TopK: 5, Threshold: 0.7, MetadataLimit: 15, MaxResults: 10}
}

// Assembler gathers candidates from the similarity index and the metadata
// store and merges them into one ranked, deduplicated list.
type Assembler struct {
	index    ports.SimilarityIndex
	store    ports.MetadataStore
	embedder ports.Embedder
	cfg      AssemblerConfig
	logger   zerolog.Logger
}

func NewAssembler(index ports.SimilarityIndex, store ports.MetadataStore, embedder ports.Embedder, cfg AssemblerConfig, logger zerolog.Logger) *Assembler {
	def := DefaultAssemblerConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.MetadataLimit <= 0 {
		cfg.MetadataLimit = def.MetadataLimit
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	return &Assembler{
		index:    index,
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger.With().Str("component", "assembler").Logger(),
	}
}

// Assemble runs both retrieval paths concurrently. A failing path
// contributes nothing; an empty result is not an error. The only error
// returned is ctx's.
func (a *Assembler) Assemble(ctx context.Context, prompt string, prefs domain.PreferenceMetadata) ([]domain.CandidateSong, error) {
	var similar, attributed []domain.CandidateSong

	var g errgroup.Group
	g.Go(func() error {
		similar = a.similar(ctx, prompt, prefs)
		return nil
	})
	g.Go(func() error {
		attributed = a.byAttributes(ctx, prefs)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Merge(a.cfg.MaxResults, similar, attributed), nil
}

func (a *Assembler) similar(ctx context.Context, prompt string, prefs domain.PreferenceMetadata) []domain.CandidateSong {
	if a.index == nil || a.embedder == nil {
		return nil
	}
	vector, err := a.embedder.Embed(ctx, prompt)
	if err != nil {
		if !errors.Is(err, domain.ErrEmptyInput) {
			a.degrade(domain.SourceSimilarity, err)
		}
		return nil
	}
	hits, err := a.index.Query(ctx, vector, ports.QueryOptions{
		TopK:      a.cfg.TopK,
		Genre:     prefs.Genre,
		Threshold: a.cfg.Threshold,
	})
	if err != nil {
		a.degrade(domain.SourceSimilarity, err)
		return nil
	}
	for i := range hits {
		hits[i].Source = domain.SourceSimilarity
	}
	metrics.RetrievalResults.WithLabelValues(domain.SourceSimilarity.String()).Observe(float64(len(hits)))
	return hits
}

func (a *Assembler) byAttributes(ctx context.Context, prefs domain.PreferenceMetadata) []domain.CandidateSong {
	if a.store == nil {
		return nil
	}
	songs, err := a.store.FindByAttributes(ctx, domain.AttributeQuery{
		Genre: prefs.Genre,
		Mood:  prefs.Mood,
		Tempo: prefs.Tempo,
		Limit: a.cfg.MetadataLimit,
	})
	if err != nil {
		a.degrade(domain.SourceMetadata, err)
		return nil
	}
	out := make([]domain.CandidateSong, 0, len(songs))
	for _, s := range songs {
		out = append(out, domain.CandidateSong{SongRecord: s, Source: domain.SourceMetadata})
	}
	metrics.RetrievalResults.WithLabelValues(domain.SourceMetadata.String()).Observe(float64(len(out)))
	return out
}

func (a *Assembler) degrade(source domain.Source, err error) {
	metrics.RetrievalFailures.WithLabelValues(source.String()).Inc()
	var unavailable *domain.RetrievalUnavailableError
	if !errors.As(err, &unavailable) {
		err = &domain.RetrievalUnavailableError{Source: source, Err: err}
	}
	a.logger.Warn().Err(err).Str("source", source.String()).Msg("retrieval source degraded to empty")
}

// Merge orders candidates by source priority, keeping each source's own
// order, drops later duplicates of a TrackID and truncates to limit.
func Merge(limit int, lists ...[]domain.CandidateSong) []domain.CandidateSong {
	var all []domain.CandidateSong
	for _, l := range lists {
		all = append(all, l...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Source < all[j].Source
	})

	seen := make(map[string]struct{}, len(all))
	out := make([]domain.CandidateSong, 0, len(all))
	for _, c := range all {
		if _, dup := seen[c.TrackID]; dup {
			continue
		}
		seen[c.TrackID] = struct{}{}
		out = append(out, c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
