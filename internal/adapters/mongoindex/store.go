// Package mongoindex keeps similarity index entries in a MongoDB collection.
// Documents are filtered by genre on the server and ranked in process.
package mongoindex

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/ports"
	"github.com/ashwini-1013/org-workspace/internal/core/vectorindex"
)

type vectorDoc struct {
	ID         string            `bson:"_id"`
	Genre      string            `bson:"genre"`
	Vector     []float32         `bson:"vector"`
	Song       domain.SongRecord `bson:"song"`
	IngestedAt time.Time         `bson:"ingested_at"`
}

// Store handles MongoDB operations for song vectors.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	builder    *vectorindex.Index
	logger     zerolog.Logger
}

// Connect dials uri, pings the server and ensures the genre index exists.
func Connect(ctx context.Context, uri, database, collection string, logger zerolog.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongoindex: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongoindex: ping: %w", err)
	}

	s := &Store{
		client:     client,
		collection: client.Database(database).Collection(collection),
		builder:    vectorindex.New(),
		logger:     logger.With().Str("component", "mongoindex").Logger(),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	s.logger.Info().Str("database", database).Str("collection", collection).Msg("connected to MongoDB")
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "genre", Value: 1}},
		Options: options.Index().SetName("genre_idx"),
	})
	if err != nil {
		return fmt.Errorf("mongoindex: create genre index: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Upsert replaces the document for id.
func (s *Store) Upsert(ctx context.Context, id string, vector []float32, song domain.SongRecord) error {
	entry, err := s.builder.Entry(ctx, id, vector, song)
	if err != nil {
		return err
	}
	doc := toDoc(entry)
	_, err = s.collection.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongoindex: replace %s: %w", id, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, opts ports.QueryOptions) ([]domain.CandidateSong, error) {
	cursor, err := s.collection.Find(ctx, genreFilter(opts.Genre))
	if err != nil {
		return nil, fmt.Errorf("mongoindex: find: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []vectorDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongoindex: decode: %w", err)
	}

	entries := make([]domain.IndexEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.entry())
	}
	return vectorindex.Rank(entries, vector, opts), nil
}

// Count returns the number of stored vectors.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongoindex: count: %w", err)
	}
	return n, nil
}

func genreFilter(genre string) bson.M {
	if genre == "" {
		return bson.M{}
	}
	return bson.M{"genre": genre}
}

func toDoc(e domain.IndexEntry) vectorDoc {
	return vectorDoc{
		ID:         e.ID,
		Genre:      e.Song.Genre,
		Vector:     e.Vector,
		Song:       e.Song,
		IngestedAt: e.IngestedAt,
	}
}

func (d vectorDoc) entry() domain.IndexEntry {
	return domain.IndexEntry{ID: d.ID, Vector: d.Vector, Song: d.Song, IngestedAt: d.IngestedAt}
}
