package mongoindex

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/ports"
)

func TestGenreFilter(t *testing.T) {
	if len(genreFilter("")) != 0 {
		t.Fatalf("empty genre should match everything")
	}
	if f := genreFilter("rock"); f["genre"] != "rock" {
		t.Fatalf("unexpected filter %v", f)
	}
}

func TestDocRoundTrip(t *testing.T) {
	pop := 71
	entry := domain.IndexEntry{
		ID:         "a",
		Vector:     []float32{0.5, 0.5},
		Song:       domain.SongRecord{TrackID: "a", TrackName: "A", Genre: "jazz", Popularity: &pop},
		IngestedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	raw, err := bson.Marshal(toDoc(entry))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back vectorDoc
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := back.entry()
	if back.Genre != "jazz" || got.ID != "a" || got.Song.TrackName != "A" || *got.Song.Popularity != 71 {
		t.Fatalf("unexpected round trip %+v", got)
	}
	if !got.IngestedAt.Equal(entry.IngestedAt) {
		t.Fatalf("timestamp changed: %v", got.IngestedAt)
	}
}

// TestStore_Integration runs against a live MongoDB.
// This test is skipped unless RUN_INTEGRATION_TESTS=true is set.
func TestStore_Integration(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping MongoDB test (set RUN_INTEGRATION_TESTS=true to enable)")
	}
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx := context.Background()
	collection := "song_vectors_test_" + time.Now().Format("150405")
	s, err := Connect(ctx, uri, "songsense_test", collection, zerolog.Nop())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		_ = s.collection.Drop(context.Background())
		_ = s.Close()
	})

	vec := func(i int) []float32 {
		v := make([]float32, domain.EmbeddingDimension)
		v[i] = 1
		return v
	}
	if err := s.Upsert(ctx, "r", vec(0), domain.SongRecord{TrackID: "r", Genre: "rock"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, "p", vec(0), domain.SongRecord{TrackID: "p", Genre: "pop"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, "p", vec(0), domain.SongRecord{TrackID: "p", Genre: "pop", Mood: "happy"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 documents, got %d (%v)", n, err)
	}
	got, err := s.Query(ctx, vec(0), ports.QueryOptions{Genre: "pop", Threshold: 0.7})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].TrackID != "p" || got[0].Mood != "happy" {
		t.Fatalf("unexpected results %+v", got)
	}
}
