// Package sqlite provides a SQLite-backed implementation of the metadata store port.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
)

const defaultFindLimit = 15

// Adapter implements ports.MetadataStore for SQLite
type Adapter struct {
	db *sql.DB
}

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if storagePath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}
	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

const upsertSongSQL = `
	INSERT INTO songs (
		track_id, track_name, artist_name, genre, mood, tempo, tempo_bpm,
		energy, danceability, valence, acousticness, instrumentalness,
		popularity, duration_ms, explicit
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// UpsertSong inserts the song or overwrites every column of the existing row.
func (a *Adapter) UpsertSong(ctx context.Context, song domain.SongRecord) error {
	if strings.TrimSpace(song.TrackID) == "" {
		return errors.New("sqlite: track id is required")
	}
	_, err := a.db.ExecContext(ctx, upsertSongSQL+`
		ON CONFLICT(track_id) DO UPDATE SET
			track_name = excluded.track_name,
			artist_name = excluded.artist_name,
			genre = excluded.genre,
			mood = excluded.mood,
			tempo = excluded.tempo,
			tempo_bpm = excluded.tempo_bpm,
			energy = excluded.energy,
			danceability = excluded.danceability,
			valence = excluded.valence,
			acousticness = excluded.acousticness,
			instrumentalness = excluded.instrumentalness,
			popularity = excluded.popularity,
			duration_ms = excluded.duration_ms,
			explicit = excluded.explicit,
			updated_at = CURRENT_TIMESTAMP
	`, songArgs(song)...)
	if err != nil {
		return fmt.Errorf("failed to upsert song %s: %w", song.TrackID, err)
	}
	return nil
}

// InsertSongIfAbsent stores the song only when its track id is new.
func (a *Adapter) InsertSongIfAbsent(ctx context.Context, song domain.SongRecord) (bool, error) {
	if strings.TrimSpace(song.TrackID) == "" {
		return false, errors.New("sqlite: track id is required")
	}
	res, err := a.db.ExecContext(ctx, upsertSongSQL+` ON CONFLICT(track_id) DO NOTHING`, songArgs(song)...)
	if err != nil {
		return false, fmt.Errorf("failed to insert song %s: %w", song.TrackID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return n > 0, nil
}

func songArgs(song domain.SongRecord) []any {
	return []any{
		song.TrackID,
		song.TrackName,
		song.ArtistName,
		nullString(song.Genre),
		nullString(song.Mood),
		nullString(song.Tempo),
		nullFloat(song.TempoBPM),
		song.Energy,
		song.Danceability,
		song.Valence,
		nullFloat(song.Acousticness),
		nullFloat(song.Instrumentalness),
		nullInt(song.Popularity),
		nullInt(song.DurationMs),
		song.Explicit,
	}
}

const selectSongColumns = `
	SELECT track_id, track_name, artist_name, genre, mood, tempo, tempo_bpm,
		IFNULL(energy, 0), IFNULL(danceability, 0), IFNULL(valence, 0),
		acousticness, instrumentalness,
		popularity, duration_ms, IFNULL(explicit, 0)
	FROM songs`

func (a *Adapter) GetSong(ctx context.Context, trackID string) (domain.SongRecord, error) {
	row := a.db.QueryRowContext(ctx, selectSongColumns+` WHERE track_id = ?`, trackID)
	song, err := scanSong(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SongRecord{}, domain.ErrNotFound
		}
		return domain.SongRecord{}, fmt.Errorf("failed to load song: %w", err)
	}
	return song, nil
}

// FindByAttributes matches every non-empty attribute exactly. Songs without
// a requested attribute never match. Results are ordered by popularity, then
// insertion order.
func (a *Adapter) FindByAttributes(ctx context.Context, q domain.AttributeQuery) ([]domain.SongRecord, error) {
	var (
		clauses []string
		args    []any
	)
	if q.Genre != "" {
		clauses = append(clauses, "genre = ?")
		args = append(args, q.Genre)
	}
	if q.Mood != "" {
		clauses = append(clauses, "mood = ?")
		args = append(args, q.Mood)
	}
	if q.Tempo != "" {
		clauses = append(clauses, "tempo = ?")
		args = append(args, q.Tempo)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}

	query := selectSongColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY popularity IS NULL, popularity DESC, rowid ASC LIMIT ?"
	args = append(args, limit)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []domain.SongRecord{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate songs: %w", err)
	}
	return songs, nil
}

func (a *Adapter) AggregateStats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := a.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT genre), COUNT(DISTINCT artist_name)
		FROM songs
	`).Scan(&stats.TotalSongs, &stats.TotalGenres, &stats.TotalArtists)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	return stats, nil
}

func (a *Adapter) ListDistinctGenres(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT genre FROM songs
		WHERE genre IS NOT NULL AND genre != ''
		GROUP BY genre
		ORDER BY COUNT(*) DESC, genre ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	defer rows.Close()

	genres := []string{}
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate genres: %w", err)
	}
	return genres, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSong(s scanner) (domain.SongRecord, error) {
	var (
		song             domain.SongRecord
		genre            sql.NullString
		mood             sql.NullString
		tempo            sql.NullString
		tempoBPM         sql.NullFloat64
		acousticness     sql.NullFloat64
		instrumentalness sql.NullFloat64
		popularity       sql.NullInt64
		duration         sql.NullInt64
	)
	if err := s.Scan(
		&song.TrackID,
		&song.TrackName,
		&song.ArtistName,
		&genre,
		&mood,
		&tempo,
		&tempoBPM,
		&song.Energy,
		&song.Danceability,
		&song.Valence,
		&acousticness,
		&instrumentalness,
		&popularity,
		&duration,
		&song.Explicit,
	); err != nil {
		return domain.SongRecord{}, err
	}
	song.Genre = genre.String
	song.Mood = mood.String
	song.Tempo = tempo.String
	song.TempoBPM = floatPtr(tempoBPM)
	song.Acousticness = floatPtr(acousticness)
	song.Instrumentalness = floatPtr(instrumentalness)
	if popularity.Valid {
		v := int(popularity.Int64)
		song.Popularity = &v
	}
	if duration.Valid {
		v := int(duration.Int64)
		song.DurationMs = &v
	}
	return song, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS songs (
		track_id TEXT PRIMARY KEY,
		track_name TEXT NOT NULL,
		artist_name TEXT NOT NULL,
		genre TEXT,
		mood TEXT,
		tempo TEXT,
		tempo_bpm REAL,
		energy REAL,
		danceability REAL,
		valence REAL,
		acousticness REAL,
		instrumentalness REAL,
		popularity INTEGER,
		duration_ms INTEGER,
		explicit BOOLEAN DEFAULT FALSE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_songs_genre ON songs(genre);
	CREATE INDEX IF NOT EXISTS idx_songs_mood ON songs(mood);
	CREATE INDEX IF NOT EXISTS idx_songs_tempo ON songs(tempo);
	CREATE INDEX IF NOT EXISTS idx_songs_artist ON songs(artist_name);
	CREATE INDEX IF NOT EXISTS idx_songs_genre_mood_tempo ON songs(genre, mood, tempo);
	`
	_, err := a.db.Exec(query)
	return err
}
