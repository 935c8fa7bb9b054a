package ports

import (
	"context"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
)

// MetadataStore persists SongRecords keyed by TrackID.
type MetadataStore interface {
	// UpsertSong inserts the song or overwrites the row with the same TrackID.
	UpsertSong(ctx context.Context, song domain.SongRecord) error
	// InsertSongIfAbsent stores the song unless its TrackID already exists.
	InsertSongIfAbsent(ctx context.Context, song domain.SongRecord) (bool, error)
	GetSong(ctx context.Context, trackID string) (domain.SongRecord, error)
	FindByAttributes(ctx context.Context, q domain.AttributeQuery) ([]domain.SongRecord, error)
	AggregateStats(ctx context.Context) (domain.Stats, error)
	// ListDistinctGenres returns genres ordered from most to least frequent.
	ListDistinctGenres(ctx context.Context) ([]string, error)
}

// QueryOptions narrows a similarity search. A zero TopK or Threshold means
// the defaults (5 and 0.7); a negative Threshold admits every score above it.
type QueryOptions struct {
	TopK      int
	Genre     string
	Threshold float64
}

// SimilarityIndex stores embedding vectors with a metadata snapshot.
type SimilarityIndex interface {
	Upsert(ctx context.Context, id string, vector []float32, song domain.SongRecord) error
	// Query returns hits ordered by descending score, at most TopK of them,
	// each scoring strictly above Threshold.
	Query(ctx context.Context, vector []float32, opts QueryOptions) ([]domain.CandidateSong, error)
}
