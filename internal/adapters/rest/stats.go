package rest

import "net/http"

type statsResponse struct {
	TotalSongs           int      `json:"totalSongs"`
	TotalGenres          int      `json:"totalGenres"`
	TotalArtists         int      `json:"totalArtists"`
	AvailableGenres      []string `json:"availableGenres"`
	TotalGenresAvailable int      `json:"totalGenresAvailable"`
}

// Stats handles GET /api/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("stats failed")
		writeError(w, http.StatusInternalServerError, "Failed to get stats")
		return
	}
	genres := stats.AvailableGenres
	if genres == nil {
		genres = []string{}
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalSongs:           stats.TotalSongs,
		TotalGenres:          stats.TotalGenres,
		TotalArtists:         stats.TotalArtists,
		AvailableGenres:      genres,
		TotalGenresAvailable: stats.TotalGenresAvailable,
	})
}
