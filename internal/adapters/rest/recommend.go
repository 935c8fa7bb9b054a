package rest

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
)

const (
	msgEmptyPrompt     = "Please describe what kind of song you want"
	msgRecommendFailed = "Failed to generate recommendations"
)

type recommendRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

type recommendResponse struct {
	Recommendation string                    `json:"recommendation"`
	Metadata       domain.PreferenceMetadata `json:"metadata"`
	SongsFound     int                       `json:"songsFound"`
	Songs          []domain.CandidateSong    `json:"songs"`
}

// Recommend handles POST /api/recommend
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, msgEmptyPrompt)
		return
	}

	rec, err := h.recommender.Recommend(r.Context(), req.Prompt)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyPrompt) {
			writeError(w, http.StatusBadRequest, msgEmptyPrompt)
			return
		}
		h.logger.Error().Err(err).Msg("recommendation failed")
		writeError(w, http.StatusInternalServerError, msgRecommendFailed)
		return
	}

	writeJSON(w, http.StatusOK, recommendResponse{
		Recommendation: rec.Text,
		Metadata:       rec.Preferences,
		SongsFound:     len(rec.Songs),
		Songs:          rec.Songs,
	})
}
