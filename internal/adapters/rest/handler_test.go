package rest

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/services"
	"github.com/ashwini-1013/org-workspace/internal/worker"
)

// --- Mocks ---

type mockRecommender struct {
	rec    services.Recommendation
	err    error
	prompt string
	calls  int
}

func (m *mockRecommender) Recommend(ctx context.Context, prompt string) (services.Recommendation, error) {
	m.calls++
	m.prompt = prompt
	return m.rec, m.err
}

type mockStats struct {
	stats services.CatalogStats
	err   error
}

func (m *mockStats) Stats(ctx context.Context) (services.CatalogStats, error) {
	return m.stats, m.err
}

type mockJobs struct {
	jobs      map[string]worker.Job
	submitErr error
	paths     []string
}

func (m *mockJobs) Submit(path string) (worker.Job, error) {
	if m.submitErr != nil {
		return worker.Job{}, m.submitErr
	}
	m.paths = append(m.paths, path)
	job := worker.Job{ID: "job-1", Path: path, Status: worker.StatusQueued}
	m.jobs[job.ID] = job
	return job, nil
}

func (m *mockJobs) Get(id string) (worker.Job, error) {
	job, ok := m.jobs[id]
	if !ok {
		return worker.Job{}, worker.ErrNotFound
	}
	return job, nil
}

func newTestHandler(rec *mockRecommender, stats *mockStats, jobs *mockJobs) *Handler {
	var q JobQueue
	if jobs != nil {
		q = jobs
	}
	return NewHandler(rec, stats, q, Options{DefaultCatalogPath: "data/genres_v2.csv", CatalogDir: "data"}, zerolog.Nop())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	rr := do(t, newTestHandler(&mockRecommender{}, &mockStats{}, nil), http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health response %d %s", rr.Code, rr.Body.String())
	}
}

func TestRecommend(t *testing.T) {
	score := 0.93
	songs := []domain.CandidateSong{
		{SongRecord: domain.SongRecord{TrackID: "a", TrackName: "A", ArtistName: "X"}, Score: &score},
		{SongRecord: domain.SongRecord{TrackID: "b", TrackName: "B", ArtistName: "Y"}},
	}

	tests := []struct {
		name       string
		body       string
		rec        *mockRecommender
		wantStatus int
		wantCalls  int
		wantBody   string
	}{
		{
			name:       "Success",
			body:       `{"prompt":"happy rock"}`,
			rec:        &mockRecommender{rec: services.Recommendation{Text: "Enjoy", Preferences: domain.PreferenceMetadata{Genre: "rock"}, Songs: songs}},
			wantStatus: http.StatusOK,
			wantCalls:  1,
			wantBody:   `"songsFound":2`,
		},
		{
			name:       "Missing prompt",
			body:       `{}`,
			rec:        &mockRecommender{},
			wantStatus: http.StatusBadRequest,
			wantBody:   msgEmptyPrompt,
		},
		{
			name:       "Blank prompt rejected by service",
			body:       `{"prompt":"   "}`,
			rec:        &mockRecommender{err: domain.ErrEmptyPrompt},
			wantStatus: http.StatusBadRequest,
			wantCalls:  1,
			wantBody:   msgEmptyPrompt,
		},
		{
			name:       "Malformed JSON",
			body:       `{"prompt":`,
			rec:        &mockRecommender{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Service failure",
			body:       `{"prompt":"jazz"}`,
			rec:        &mockRecommender{err: errors.New("service: assemble candidates: context canceled")},
			wantStatus: http.StatusInternalServerError,
			wantCalls:  1,
			wantBody:   msgRecommendFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, newTestHandler(tt.rec, &mockStats{}, nil), http.MethodPost, "/api/recommend", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if tt.rec.calls != tt.wantCalls {
				t.Fatalf("expected %d service calls, got %d", tt.wantCalls, tt.rec.calls)
			}
			if tt.wantBody != "" && !strings.Contains(rr.Body.String(), tt.wantBody) {
				t.Fatalf("expected body to contain %q, got %s", tt.wantBody, rr.Body.String())
			}
		})
	}
}

func TestRecommend_ResponseShape(t *testing.T) {
	score := 0.9
	rec := &mockRecommender{rec: services.Recommendation{
		Text:        "Here you go",
		Preferences: domain.PreferenceMetadata{Genre: "pop", Mood: "happy"},
		Songs:       []domain.CandidateSong{{SongRecord: domain.SongRecord{TrackID: "a", TrackName: "A"}, Score: &score}},
	}}
	rr := do(t, newTestHandler(rec, &mockStats{}, nil), http.MethodPost, "/api/recommend", `{"prompt":"pop"}`)

	var got struct {
		Recommendation string                    `json:"recommendation"`
		Metadata       domain.PreferenceMetadata `json:"metadata"`
		SongsFound     int                       `json:"songsFound"`
		Songs          []map[string]any          `json:"songs"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Recommendation != "Here you go" || got.Metadata.Mood != "happy" || got.SongsFound != 1 {
		t.Fatalf("unexpected response %+v", got)
	}
	if got.Songs[0]["track_id"] != "a" || got.Songs[0]["similarity_score"] != 0.9 {
		t.Fatalf("unexpected song encoding %v", got.Songs[0])
	}
	if rec.prompt != "pop" {
		t.Fatalf("prompt not forwarded, got %q", rec.prompt)
	}
}

func TestRecommend_UnsupportedMediaType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader("prompt=rock"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	newTestHandler(&mockRecommender{}, &mockStats{}, nil).ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rr.Code)
	}
}

func TestRecommend_RateLimited(t *testing.T) {
	h := NewHandler(&mockRecommender{}, &mockStats{}, nil, Options{RateLimit: 1}, zerolog.Nop())
	if rr := do(t, h, http.MethodPost, "/api/recommend", `{"prompt":"a"}`); rr.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/api/recommend", `{"prompt":"a"}`); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be throttled, got %d", rr.Code)
	}
}

func TestStats(t *testing.T) {
	stats := &mockStats{stats: services.CatalogStats{
		Stats:                domain.Stats{TotalSongs: 5, TotalGenres: 4, TotalArtists: 5},
		AvailableGenres:      []string{"rock", "pop"},
		TotalGenresAvailable: 4,
	}}
	rr := do(t, newTestHandler(&mockRecommender{}, stats, nil), http.MethodGet, "/api/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	want := `{"totalSongs":5,"totalGenres":4,"totalArtists":5,"availableGenres":["rock","pop"],"totalGenresAvailable":4}`
	if strings.TrimSpace(rr.Body.String()) != want {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}

	stats.err = errors.New("database is locked")
	if rr := do(t, newTestHandler(&mockRecommender{}, stats, nil), http.MethodGet, "/api/stats", ""); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestIngestJobs(t *testing.T) {
	jobs := &mockJobs{jobs: map[string]worker.Job{}}
	h := newTestHandler(&mockRecommender{}, &mockStats{}, jobs)

	rr := do(t, h, http.MethodPost, "/api/ingest", `{"path":"small.csv"}`)
	if rr.Code != http.StatusAccepted || rr.Header().Get("Location") != "/api/ingest/job-1" {
		t.Fatalf("unexpected submit response %d %v", rr.Code, rr.Header())
	}

	rr = do(t, h, http.MethodPost, "/api/ingest", "")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("empty body should use the default path, got %d", rr.Code)
	}
	if len(jobs.paths) != 2 || jobs.paths[0] != filepath.Join("data", "small.csv") || jobs.paths[1] != "data/genres_v2.csv" {
		t.Fatalf("unexpected submitted paths %v", jobs.paths)
	}

	report := services.IngestReport{Indexed: 7, Skipped: 1}
	jobs.jobs["job-1"] = worker.Job{ID: "job-1", Status: worker.StatusCompleted, Report: &report}
	rr = do(t, h, http.MethodGet, "/api/ingest/job-1", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"indexed":7`) || !strings.Contains(rr.Body.String(), `"status":"completed"`) {
		t.Fatalf("unexpected job response %d %s", rr.Code, rr.Body.String())
	}

	if rr := do(t, h, http.MethodGet, "/api/ingest/missing", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	jobs.submitErr = worker.ErrQueueFull
	if rr := do(t, h, http.MethodPost, "/api/ingest", `{"path":"x.csv"}`); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestIngestRoutesAbsentWithoutQueue(t *testing.T) {
	rr := do(t, newTestHandler(&mockRecommender{}, &mockStats{}, nil), http.MethodPost, "/api/ingest", `{"path":"x.csv"}`)
	if rr.Code != http.StatusNotFound && rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected ingestion routes to be absent, got %d", rr.Code)
	}
}

func TestSubmitIngest_RejectsPathsOutsideCatalogDir(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"parent traversal", `{"path":"../etc/passwd"}`},
		{"nested traversal", `{"path":"sub/../../secrets.csv"}`},
		{"absolute", `{"path":"/etc/passwd"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := &mockJobs{jobs: map[string]worker.Job{}}
			rr := do(t, newTestHandler(&mockRecommender{}, &mockStats{}, jobs), http.MethodPost, "/api/ingest", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (%s)", rr.Code, rr.Body.String())
			}
			if len(jobs.paths) != 0 {
				t.Fatalf("no job should be queued, got %v", jobs.paths)
			}
		})
	}
}

func TestSubmitIngest_CustomPathsDisabledWithoutCatalogDir(t *testing.T) {
	jobs := &mockJobs{jobs: map[string]worker.Job{}}
	h := NewHandler(&mockRecommender{}, &mockStats{}, jobs, Options{DefaultCatalogPath: "data/genres_v2.csv"}, zerolog.Nop())

	if rr := do(t, h, http.MethodPost, "/api/ingest", `{"path":"small.csv"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/api/ingest", `{}`); rr.Code != http.StatusAccepted {
		t.Fatalf("default catalog should still be accepted, got %d", rr.Code)
	}
	if len(jobs.paths) != 1 || jobs.paths[0] != "data/genres_v2.csv" {
		t.Fatalf("unexpected submitted paths %v", jobs.paths)
	}
}
