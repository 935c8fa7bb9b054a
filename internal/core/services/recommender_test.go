package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/embedding"
)

func newTestRecommender(ext *mockExtractor, gen *mockGenerator, index *mockIndex, store *mockStore) *Recommender {
	a := NewAssembler(index, store, embedding.NewEncoder(), DefaultAssemblerConfig(), zerolog.Nop())
	return NewRecommender(ext, gen, a, zerolog.Nop())
}

func TestRecommender_BlankPrompt(t *testing.T) {
	for _, prompt := range []string{"", "   ", "\n\t"} {
		ext := &mockExtractor{}
		gen := &mockGenerator{}
		index := &mockIndex{}
		store := &mockStore{}
		r := newTestRecommender(ext, gen, index, store)

		_, err := r.Recommend(context.Background(), prompt)
		if !errors.Is(err, domain.ErrEmptyPrompt) {
			t.Fatalf("prompt %q: expected ErrEmptyPrompt, got %v", prompt, err)
		}
		if ext.calls+gen.calls+index.queries+store.findCalls != 0 {
			t.Fatalf("prompt %q: expected no backend calls", prompt)
		}
	}
}

func TestRecommender_Recommend(t *testing.T) {
	ext := &mockExtractor{prefs: domain.PreferenceMetadata{Genre: "rock", Mood: "happy"}}
	gen := &mockGenerator{text: "Try these three."}
	store := &mockStore{found: []domain.SongRecord{{TrackID: "y", TrackName: "Y", ArtistName: "B"}}}
	r := newTestRecommender(ext, gen, &mockIndex{}, store)

	rec, err := r.Recommend(context.Background(), "  happy rock  ")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if rec.Text != "Try these three." {
		t.Errorf("unexpected text %q", rec.Text)
	}
	if rec.Preferences.Genre != "rock" || store.lastQuery.Genre != "rock" {
		t.Errorf("extracted preferences not used: %+v / %+v", rec.Preferences, store.lastQuery)
	}
	if len(rec.Songs) != 1 || len(gen.songs) != 1 {
		t.Errorf("expected one song passed through, got %d / %d", len(rec.Songs), len(gen.songs))
	}
}

func TestRecommender_ExtractorFailureUsesHeuristics(t *testing.T) {
	ext := &mockExtractor{err: errors.New("model offline")}
	store := &mockStore{found: []domain.SongRecord{{TrackID: "y"}}}
	r := newTestRecommender(ext, &mockGenerator{text: "ok"}, &mockIndex{}, store)

	rec, err := r.Recommend(context.Background(), "some sad jazz for a slow evening")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	want := domain.PreferenceMetadata{Genre: "jazz", Mood: "sad", Tempo: "slow"}
	if rec.Preferences != want {
		t.Fatalf("expected %+v, got %+v", want, rec.Preferences)
	}
	if store.lastQuery.Genre != "jazz" || store.lastQuery.Mood != "sad" {
		t.Fatalf("heuristic preferences not passed to the store: %+v", store.lastQuery)
	}
}

func TestRecommender_GeneratorFailureUsesTemplate(t *testing.T) {
	ext := &mockExtractor{prefs: domain.PreferenceMetadata{Genre: "rock", Mood: "dramatic"}}
	store := &mockStore{found: []domain.SongRecord{
		{TrackID: "a", TrackName: "Bohemian Rhapsody", ArtistName: "Queen"},
		{TrackID: "b", TrackName: "Hotel California", ArtistName: "Eagles"},
		{TrackID: "c", TrackName: "Imagine", ArtistName: "John Lennon"},
		{TrackID: "d", TrackName: "Billie Jean", ArtistName: "Michael Jackson"},
	}}

	for _, gen := range []*mockGenerator{{err: errors.New("rate limited")}, {text: "   "}} {
		r := newTestRecommender(ext, gen, &mockIndex{}, store)
		rec, err := r.Recommend(context.Background(), "epic rock")
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		want := "Based on your request, here are some great matches:\n\n" +
			"1. \"Bohemian Rhapsody\" by Queen\n" +
			"2. \"Hotel California\" by Eagles\n" +
			"3. \"Imagine\" by John Lennon\n\n" +
			"These songs should match your dramatic mood and rock style!"
		if rec.Text != want {
			t.Fatalf("unexpected narrative:\n%s", rec.Text)
		}
		if len(rec.Songs) != 4 {
			t.Fatalf("expected all 4 songs returned, got %d", len(rec.Songs))
		}
	}
}

func TestRecommender_NoMatches(t *testing.T) {
	gen := &mockGenerator{text: "should not be used"}
	r := newTestRecommender(&mockExtractor{}, gen, &mockIndex{}, &mockStore{})

	rec, err := r.Recommend(context.Background(), "zzzz")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if rec.Text != NoMatchMessage {
		t.Fatalf("expected no-match message, got %q", rec.Text)
	}
	if rec.Songs == nil || len(rec.Songs) != 0 {
		t.Fatalf("expected empty non-nil songs, got %#v", rec.Songs)
	}
	if gen.calls != 0 {
		t.Fatalf("generator should not run without candidates")
	}
}

func TestFallbackNarrative_Defaults(t *testing.T) {
	got := FallbackNarrative([]domain.CandidateSong{candidate("a", domain.SourceMetadata)}, domain.PreferenceMetadata{})
	if !strings.HasSuffix(got, "match your desired mood and preferred style!") {
		t.Fatalf("unexpected defaults: %q", got)
	}
	if !strings.Contains(got, "1. \"Track a\" by Artist a") {
		t.Fatalf("missing song line: %q", got)
	}
}

type blockingGenerator struct{}

func (blockingGenerator) GenerateNarrative(ctx context.Context, prompt string, songs []domain.CandidateSong, prefs domain.PreferenceMetadata) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRecommender_LLMTimeoutFallsBack(t *testing.T) {
	store := &mockStore{found: []domain.SongRecord{{TrackID: "a", TrackName: "A", ArtistName: "B"}}}
	a := NewAssembler(&mockIndex{}, store, embedding.NewEncoder(), DefaultAssemblerConfig(), zerolog.Nop())
	r := NewRecommender(nil, blockingGenerator{}, a, zerolog.Nop(), WithLLMTimeout(10*time.Millisecond))

	rec, err := r.Recommend(context.Background(), "rock")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !strings.HasPrefix(rec.Text, "Based on your request") {
		t.Fatalf("expected the fallback narrative, got %q", rec.Text)
	}
}
