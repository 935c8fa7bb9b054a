package resilient

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/ports"
)

// Store guards a ports.MetadataStore. domain.ErrNotFound does not count as
// a failure.
type Store struct {
	next ports.MetadataStore
	b    *breaker
}

func NewStore(next ports.MetadataStore, s Settings, logger zerolog.Logger) *Store {
	return &Store{next: next, b: newBreaker("metadata_store", domain.SourceMetadata, s, logger)}
}

func (s *Store) UpsertSong(ctx context.Context, song domain.SongRecord) error {
	_, err := execute(s.b, func() (struct{}, error) {
		return struct{}{}, s.next.UpsertSong(ctx, song)
	})
	return err
}

func (s *Store) InsertSongIfAbsent(ctx context.Context, song domain.SongRecord) (bool, error) {
	return execute(s.b, func() (bool, error) {
		return s.next.InsertSongIfAbsent(ctx, song)
	})
}

func (s *Store) GetSong(ctx context.Context, trackID string) (domain.SongRecord, error) {
	return execute(s.b, func() (domain.SongRecord, error) {
		return s.next.GetSong(ctx, trackID)
	})
}

func (s *Store) FindByAttributes(ctx context.Context, q domain.AttributeQuery) ([]domain.SongRecord, error) {
	return execute(s.b, func() ([]domain.SongRecord, error) {
		return s.next.FindByAttributes(ctx, q)
	})
}

func (s *Store) AggregateStats(ctx context.Context) (domain.Stats, error) {
	return execute(s.b, func() (domain.Stats, error) {
		return s.next.AggregateStats(ctx)
	})
}

func (s *Store) ListDistinctGenres(ctx context.Context) ([]string, error) {
	return execute(s.b, func() ([]string, error) {
		return s.next.ListDistinctGenres(ctx)
	})
}
