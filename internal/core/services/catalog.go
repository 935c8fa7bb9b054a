package services

import (
	"context"
	"fmt"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/ports"
)

const statsGenreCount = 10

// CatalogStats is the summary served on the stats endpoint.
type CatalogStats struct {
	domain.Stats
	AvailableGenres      []string
	TotalGenresAvailable int
}

// Catalog answers read-only questions about the metadata store.
type Catalog struct {
	store ports.MetadataStore
}

func NewCatalog(store ports.MetadataStore) *Catalog {
	return &Catalog{store: store}
}

// Stats returns the aggregate counts and the ten most common genres.
func (c *Catalog) Stats(ctx context.Context) (CatalogStats, error) {
	stats, err := c.store.AggregateStats(ctx)
	if err != nil {
		return CatalogStats{}, fmt.Errorf("service: aggregate stats: %w", err)
	}
	genres, err := c.store.ListDistinctGenres(ctx)
	if err != nil {
		return CatalogStats{}, fmt.Errorf("service: list genres: %w", err)
	}
	top := genres
	if len(top) > statsGenreCount {
		top = top[:statsGenreCount]
	}
	return CatalogStats{Stats: stats, AvailableGenres: top, TotalGenresAvailable: len(genres)}, nil
}

// SampleSongs are the reference tracks seeded into an empty catalog.
func SampleSongs() []domain.SongRecord {
	return []domain.SongRecord{
		{TrackID: "sample_1", TrackName: "Bohemian Rhapsody", ArtistName: "Queen", Genre: "rock", Mood: "dramatic", Tempo: "medium", Energy: 0.8, Danceability: 0.6, Valence: 0.7},
		{TrackID: "sample_2", TrackName: "Hotel California", ArtistName: "Eagles", Genre: "rock", Mood: "melancholic", Tempo: "medium", Energy: 0.7, Danceability: 0.5, Valence: 0.4},
		{TrackID: "sample_3", TrackName: "Billie Jean", ArtistName: "Michael Jackson", Genre: "pop", Mood: "energetic", Tempo: "fast", Energy: 0.9, Danceability: 0.8, Valence: 0.8},
		{TrackID: "sample_4", TrackName: "Imagine", ArtistName: "John Lennon", Genre: "folk", Mood: "peaceful", Tempo: "slow", Energy: 0.3, Danceability: 0.4, Valence: 0.6},
		{TrackID: "sample_5", TrackName: "Smells Like Teen Spirit", ArtistName: "Nirvana", Genre: "grunge", Mood: "angry", Tempo: "fast", Energy: 0.9, Danceability: 0.7, Valence: 0.3},
	}
}

// SeedSamples inserts SampleSongs without touching rows that already exist
// and reports how many were new.
func (c *Catalog) SeedSamples(ctx context.Context) (int, error) {
	inserted := 0
	for _, s := range SampleSongs() {
		ok, err := c.store.InsertSongIfAbsent(ctx, s)
		if err != nil {
			return inserted, fmt.Errorf("service: seed %s: %w", s.TrackID, err)
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}
