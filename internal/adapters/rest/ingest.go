package rest

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/ashwini-1013/org-workspace/internal/worker"
)

type ingestRequest struct {
	Path string `json:"path"`
}

type ingestJobResponse struct {
	worker.Job
	Indexed      *int `json:"indexed,omitempty"`
	MetadataOnly *int `json:"metadataOnly,omitempty"`
	Skipped      *int `json:"skipped,omitempty"`
	Failed       *int `json:"failed,omitempty"`
}

func toJobResponse(job worker.Job) ingestJobResponse {
	resp := ingestJobResponse{Job: job}
	if job.Report != nil {
		resp.Indexed = &job.Report.Indexed
		resp.MetadataOnly = &job.Report.MetadataOnly
		resp.Skipped = &job.Report.Skipped
		resp.Failed = &job.Report.Failed
	}
	return resp
}

// SubmitIngest handles POST /api/ingest
func (h *Handler) SubmitIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	path := h.opts.DefaultCatalogPath
	if req.Path != "" {
		resolved, err := h.catalogPath(req.Path)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		path = resolved
	}
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	job, err := h.jobs.Submit(path)
	if err != nil {
		if errors.Is(err, worker.ErrQueueFull) || errors.Is(err, worker.ErrStopped) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Location", "/api/ingest/"+job.ID)
	writeJSON(w, http.StatusAccepted, toJobResponse(job))
}

var errPathOutsideCatalog = errors.New("path must name a file inside the catalog directory")

// catalogPath resolves a client-supplied path against CatalogDir. Absolute
// paths and paths escaping the directory are rejected.
func (h *Handler) catalogPath(p string) (string, error) {
	if h.opts.CatalogDir == "" {
		return "", errors.New("custom catalog paths are disabled")
	}
	if !filepath.IsLocal(p) {
		return "", errPathOutsideCatalog
	}
	return filepath.Join(h.opts.CatalogDir, p), nil
}

// GetIngest handles GET /api/ingest/{id}
func (h *Handler) GetIngest(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, worker.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}
