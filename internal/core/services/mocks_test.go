package services

import (
	"context"
	"sync"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/ports"
)

// --- Mocks ---

type mockStore struct {
	mu        sync.Mutex
	songs     map[string]domain.SongRecord
	order     []string
	upsertErr error
	findErr   error
	found     []domain.SongRecord
	findCalls int
	lastQuery domain.AttributeQuery
	stats     domain.Stats
	genres    []string
}

func newMockStore() *mockStore {
	return &mockStore{songs: map[string]domain.SongRecord{}}
}

func (m *mockStore) UpsertSong(ctx context.Context, song domain.SongRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if _, ok := m.songs[song.TrackID]; !ok {
		m.order = append(m.order, song.TrackID)
	}
	m.songs[song.TrackID] = song
	return nil
}

func (m *mockStore) InsertSongIfAbsent(ctx context.Context, song domain.SongRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return false, m.upsertErr
	}
	if _, ok := m.songs[song.TrackID]; ok {
		return false, nil
	}
	m.songs[song.TrackID] = song
	m.order = append(m.order, song.TrackID)
	return true, nil
}

func (m *mockStore) GetSong(ctx context.Context, trackID string) (domain.SongRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.songs[trackID]
	if !ok {
		return domain.SongRecord{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *mockStore) FindByAttributes(ctx context.Context, q domain.AttributeQuery) ([]domain.SongRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	m.lastQuery = q
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.found, nil
}

func (m *mockStore) AggregateStats(ctx context.Context) (domain.Stats, error) {
	if m.findErr != nil {
		return domain.Stats{}, m.findErr
	}
	return m.stats, nil
}

func (m *mockStore) ListDistinctGenres(ctx context.Context) ([]string, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.genres, nil
}

type mockIndex struct {
	mu        sync.Mutex
	upserts   []string
	upsertErr error
	hits      []domain.CandidateSong
	queryErr  error
	lastOpts  ports.QueryOptions
	queries   int
}

func (m *mockIndex) Upsert(ctx context.Context, id string, vector []float32, song domain.SongRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts = append(m.upserts, id)
	return nil
}

func (m *mockIndex) Query(ctx context.Context, vector []float32, opts ports.QueryOptions) ([]domain.CandidateSong, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	m.lastOpts = opts
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	out := make([]domain.CandidateSong, len(m.hits))
	copy(out, m.hits)
	return out, nil
}

// mockEmbedder returns errs in order, then a fixed vector.
type mockEmbedder struct {
	mu    sync.Mutex
	errs  []error
	calls int
	texts []string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.texts = append(m.texts, text)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	v := make([]float32, domain.EmbeddingDimension)
	v[0] = 1
	return v, nil
}

type mockExtractor struct {
	prefs domain.PreferenceMetadata
	err   error
	calls int
}

func (m *mockExtractor) ExtractPreferences(ctx context.Context, prompt string) (domain.PreferenceMetadata, error) {
	m.calls++
	return m.prefs, m.err
}

type mockGenerator struct {
	text  string
	err   error
	calls int
	songs []domain.CandidateSong
}

func (m *mockGenerator) GenerateNarrative(ctx context.Context, prompt string, songs []domain.CandidateSong, prefs domain.PreferenceMetadata) (string, error) {
	m.calls++
	m.songs = songs
	return m.text, m.err
}

func score(v float64) *float64 { return &v }

func candidate(id string, src domain.Source) domain.CandidateSong {
	return domain.CandidateSong{
		SongRecord: domain.SongRecord{TrackID: id, TrackName: "Track " + id, ArtistName: "Artist " + id},
		Source:     src,
	}
}
