package resilient

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/ports"
)

// Index guards a ports.SimilarityIndex.
type Index struct {
	next ports.SimilarityIndex
	b    *breaker
}

func NewIndex(next ports.SimilarityIndex, s Settings, logger zerolog.Logger) *Index {
	return &Index{next: next, b: newBreaker("similarity_index", domain.SourceSimilarity, s, logger)}
}

func (i *Index) Upsert(ctx context.Context, id string, vector []float32, song domain.SongRecord) error {
	_, err := execute(i.b, func() (struct{}, error) {
		return struct{}{}, i.next.Upsert(ctx, id, vector, song)
	})
	return err
}

func (i *Index) Query(ctx context.Context, vector []float32, opts ports.QueryOptions) ([]domain.CandidateSong, error) {
	return execute(i.b, func() ([]domain.CandidateSong, error) {
		return i.next.Query(ctx, vector, opts)
	})
}
