package domain

import (
	"strconv"
	"strings"
)

// CatalogRow is one raw record from a catalog source, keyed by column name.
// Column sets vary between sources.
type CatalogRow map[string]string

// First returns the first non-blank value among keys, trimmed.
func (r CatalogRow) First(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

// Number parses a numeric column. ok is false for missing or malformed values.
func (r CatalogRow) Number(key string) (float64, bool) {
	v := strings.TrimSpace(r[key])
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

const (
	defaultGenre     = "unknown"
	defaultTempoBPM  = 120
	maxTrackIDLength = 50
)

var (
	trackNameColumns  = []string{"song_name", "track_name", "title", "name"}
	artistNameColumns = []string{"artist_name", "artist", "performer"}
)

// SongFromRow resolves a raw catalog row into a SongRecord. index is the
// zero-based position of the row in its source and only feeds error reports.
func SongFromRow(index int, row CatalogRow) (SongRecord, error) {
	trackName := row.First(trackNameColumns...)
	if trackName == "" {
		return SongRecord{}, ValidationError{Row: index, Reason: "missing track name"}
	}
	artistName := ResolveArtist(row, trackName)
	if artistName == "" {
		return SongRecord{}, ValidationError{Row: index, Reason: "missing artist name"}
	}

	energy, _ := row.Number("energy")
	valence, _ := row.Number("valence")
	danceability, _ := row.Number("danceability")

	song := SongRecord{
		TrackID:      row.First("track_id"),
		TrackName:    trackName,
		ArtistName:   artistName,
		Genre:        row.First("genre"),
		Mood:         row.First("mood"),
		Energy:       energy,
		Danceability: danceability,
		Valence:      valence,
		Explicit:     parseExplicit(row["explicit"]),
	}
	if song.TrackID == "" {
		song.TrackID = DeriveTrackID(trackName, artistName)
	}
	if song.Genre == "" {
		song.Genre = defaultGenre
	}
	if song.Mood == "" {
		song.Mood = InferMood(valence, energy, danceability)
	}
	if bpm, ok := row.Number("tempo"); ok {
		song.TempoBPM = &bpm
		song.Tempo = TempoCategory(bpm)
	} else if raw := row.First("tempo"); raw != "" {
		song.Tempo = strings.ToLower(raw)
	} else {
		song.Tempo = TempoCategory(defaultTempoBPM)
	}
	if v, ok := row.Number("acousticness"); ok {
		song.Acousticness = &v
	}
	if v, ok := row.Number("instrumentalness"); ok {
		song.Instrumentalness = &v
	}
	if p, ok := row.Number("popularity"); ok {
		v := int(p)
		song.Popularity = &v
	}
	if d, ok := row.Number("duration_ms"); ok {
		v := int(d)
		song.DurationMs = &v
	}
	return song, nil
}

// ResolveArtist finds the artist for a row: an explicit artist column, then
// "<title> by <artist>", then "<artist> - <title>", then "<genre> Artist".
func ResolveArtist(row CatalogRow, trackName string) string {
	if a := row.First(artistNameColumns...); a != "" {
		return a
	}
	if _, after, ok := strings.Cut(trackName, " by "); ok {
		if a := firstSegment(after, " by "); a != "" {
			return a
		}
	} else if before, _, ok := strings.Cut(trackName, " - "); ok {
		if a := strings.TrimSpace(before); a != "" {
			return a
		}
	}
	genre := row.First("genre")
	if genre == "" {
		genre = "Unknown"
	}
	return genre + " Artist"
}

func firstSegment(s, sep string) string {
	seg, _, _ := strings.Cut(s, sep)
	return strings.TrimSpace(seg)
}

func parseExplicit(v string) bool {
	v = strings.TrimSpace(v)
	return v == "true" || v == "1"
}

// DeriveTrackID builds the stable identifier for a track: lower-cased
// "name_artist" with every run of characters outside [a-z0-9] collapsed to a
// single underscore, capped at 50 bytes.
func DeriveTrackID(trackName, artistName string) string {
	src := strings.ToLower(trackName + "_" + artistName)
	var b strings.Builder
	b.Grow(len(src))
	lastUnderscore := false
	for _, r := range src {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	id := b.String()
	if len(id) > maxTrackIDLength {
		id = id[:maxTrackIDLength]
	}
	return id
}

// InferMood applies the ordered audio-feature rules. The first matching rule wins.
func InferMood(valence, energy, danceability float64) string {
	switch {
	case valence > 0.6 && energy > 0.6:
		return "happy"
	case valence < 0.4 && energy < 0.4:
		return "sad"
	case energy > 0.7 && danceability > 0.7:
		return "energetic"
	case energy < 0.4 && valence > 0.3 && valence < 0.7:
		return "calm"
	case valence < 0.3:
		return "melancholic"
	case energy > 0.6:
		return "upbeat"
	default:
		return "neutral"
	}
}

// EmbeddingTempo is the tempo category used in embedding text: the bucket
// of TempoBPM when known, the stored tempo when it already is a category,
// and the bucket of the default BPM otherwise.
func EmbeddingTempo(song SongRecord) string {
	if song.TempoBPM != nil {
		return TempoCategory(*song.TempoBPM)
	}
	switch song.Tempo {
	case "slow", "medium", "fast":
		return song.Tempo
	}
	return TempoCategory(defaultTempoBPM)
}

// TempoCategory buckets a BPM value.
func TempoCategory(bpm float64) string {
	switch {
	case bpm < 90:
		return "slow"
	case bpm > 140:
		return "fast"
	default:
		return "medium"
	}
}
