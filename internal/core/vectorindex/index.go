// Package vectorindex holds embedding vectors in memory and ranks them by
// cosine similarity. It backs the persistent index adapters as well.
package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/embedding"
	"github.com/ashwini-1013/org-workspace/internal/core/ports"
)

const (
	DefaultTopK      = 5
	DefaultThreshold = 0.7
)

// Index is a concurrency-safe in-memory similarity index. Reads may run in
// parallel with each other; writes are exclusive.
type Index struct {
	mu      sync.RWMutex
	entries map[string]domain.IndexEntry
	now     func() time.Time
}

func New() *Index {
	return &Index{entries: make(map[string]domain.IndexEntry), now: time.Now}
}

// Upsert replaces any entry with the same id and stamps the ingestion time.
func (ix *Index) Upsert(ctx context.Context, id string, vector []float32, song domain.SongRecord) error {
	_, err := ix.Put(ctx, id, vector, song)
	return err
}

// Put is Upsert returning the stored entry.
func (ix *Index) Put(ctx context.Context, id string, vector []float32, song domain.SongRecord) (domain.IndexEntry, error) {
	entry, err := ix.Entry(ctx, id, vector, song)
	if err != nil {
		return domain.IndexEntry{}, err
	}
	ix.Load(entry)
	return entry, nil
}

// Entry validates the input and builds the entry Put would store, without
// storing it.
func (ix *Index) Entry(ctx context.Context, id string, vector []float32, song domain.SongRecord) (domain.IndexEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.IndexEntry{}, err
	}
	if id == "" {
		return domain.IndexEntry{}, fmt.Errorf("vectorindex: empty id")
	}
	if len(vector) != domain.EmbeddingDimension {
		return domain.IndexEntry{}, fmt.Errorf("vectorindex: vector has %d dimensions, want %d", len(vector), domain.EmbeddingDimension)
	}

	return domain.IndexEntry{
		ID:         id,
		Vector:     append([]float32(nil), vector...),
		Song:       song,
		IngestedAt: ix.now().UTC(),
	}, nil
}

// Load inserts entries as-is, keeping their timestamps.
func (ix *Index) Load(entries ...domain.IndexEntry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, e := range entries {
		ix.entries[e.ID] = e
	}
}

// Len reports the number of stored vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Get returns the entry stored under id.
func (ix *Index) Get(id string) (domain.IndexEntry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.entries[id]
	return e, ok
}

func (ix *Index) Query(ctx context.Context, vector []float32, opts ports.QueryOptions) ([]domain.CandidateSong, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ix.mu.RLock()
	snapshot := make([]domain.IndexEntry, 0, len(ix.entries))
	for _, e := range ix.entries {
		snapshot = append(snapshot, e)
	}
	ix.mu.RUnlock()

	return Rank(snapshot, vector, opts), nil
}

// Rank scores entries against vector and applies the genre filter, topK and
// threshold from opts, with zero values meaning DefaultTopK and
// DefaultThreshold. Equal scores are ordered by id.
func Rank(entries []domain.IndexEntry, vector []float32, opts ports.QueryOptions) []domain.CandidateSong {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	type scored struct {
		entry domain.IndexEntry
		score float64
	}
	hits := make([]scored, 0, len(entries))
	for _, e := range entries {
		if opts.Genre != "" && e.Song.Genre != opts.Genre {
			continue
		}
		score := embedding.Dot(vector, e.Vector)
		if score <= threshold {
			continue
		}
		hits = append(hits, scored{entry: e, score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].entry.ID < hits[j].entry.ID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	out := make([]domain.CandidateSong, 0, len(hits))
	for _, h := range hits {
		score := h.score
		song := h.entry.Song
		if song.TrackID == "" {
			song.TrackID = h.entry.ID
		}
		out = append(out, domain.CandidateSong{SongRecord: song, Score: &score, Source: domain.SourceSimilarity})
	}
	return out
}
