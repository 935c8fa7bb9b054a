package domain

import "time"

// EmbeddingDimension is the length of every vector produced by the encoder.
const EmbeddingDimension = 384

// SongRecord is the canonical metadata for one catalog track.
type SongRecord struct {
	TrackID          string   `json:"track_id"`
	TrackName        string   `json:"track_name"`
	ArtistName       string   `json:"artist_name"`
	Genre            string   `json:"genre,omitempty"`
	Mood             string   `json:"mood,omitempty"`
	Tempo            string   `json:"tempo,omitempty"`
	Energy           float64  `json:"energy"`
	Danceability     float64  `json:"danceability"`
	Valence          float64  `json:"valence"`
	Acousticness     *float64 `json:"acousticness,omitempty"`
	Instrumentalness *float64 `json:"instrumentalness,omitempty"`
	Popularity       *int     `json:"popularity,omitempty"`
	DurationMs       *int     `json:"duration_ms,omitempty"`
	Explicit         bool     `json:"explicit"`
	TempoBPM         *float64 `json:"tempo_bpm,omitempty"`
}

// Source identifies which retrieval path produced a candidate.
// Lower values win when the same track is found by several sources.
type Source int

const (
	SourceSimilarity Source = iota
	SourceMetadata
)

func (s Source) String() string {
	switch s {
	case SourceSimilarity:
		return "similarity"
	case SourceMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// CandidateSong is a retrieval result. Score is set only for similarity hits.
type CandidateSong struct {
	SongRecord
	Score  *float64 `json:"similarity_score,omitempty"`
	Source Source   `json:"-"`
}

// IndexEntry is one stored vector along with the metadata snapshot taken at
// ingestion time.
type IndexEntry struct {
	ID         string     `json:"id"`
	Vector     []float32  `json:"vector"`
	Song       SongRecord `json:"song"`
	IngestedAt time.Time  `json:"ingested_at"`
}

// Stats summarizes the metadata store.
type Stats struct {
	TotalSongs   int `json:"totalSongs"`
	TotalGenres  int `json:"totalGenres"`
	TotalArtists int `json:"totalArtists"`
}

// AttributeQuery selects songs by exact attribute match. Empty fields are
// not constrained.
type AttributeQuery struct {
	Genre string
	Mood  string
	Tempo string
	Limit int
}
