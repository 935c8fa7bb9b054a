// Package badgerindex persists similarity index entries in BadgerDB. All
// entries are loaded into an in-memory vectorindex.Index on open; queries
// are served from memory and writes go to disk first.
package badgerindex

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/ports"
	"github.com/ashwini-1013/org-workspace/internal/core/vectorindex"
)

const vectorKeyPrefix = "vec:"

type Store struct {
	db     *badger.DB
	mem    *vectorindex.Index
	logger zerolog.Logger
}

// Open opens (or creates) the database at dir.
func Open(dir string, logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	return OpenWithOptions(opts, logger)
}

// OpenWithOptions is Open with caller-supplied badger options, e.g.
// WithInMemory(true) for tests.
func OpenWithOptions(opts badger.Options, logger zerolog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerindex: open: %w", err)
	}
	s := &Store{
		db:     db,
		mem:    vectorindex.New(),
		logger: logger.With().Str("component", "badgerindex").Logger(),
	}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	var entries []domain.IndexEntry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(vectorKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var entry domain.IndexEntry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badgerindex: load: %w", err)
	}
	s.mem.Load(entries...)
	s.logger.Info().Int("entries", len(entries)).Msg("similarity index loaded")
	return nil
}

// Upsert replaces any stored entry for id.
func (s *Store) Upsert(ctx context.Context, id string, vector []float32, song domain.SongRecord) error {
	entry, err := s.mem.Entry(ctx, id, vector, song)
	if err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("badgerindex: marshal entry: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(vectorKeyPrefix+id), data)
	})
	if err != nil {
		return fmt.Errorf("badgerindex: set %s: %w", id, err)
	}
	s.mem.Load(entry)
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, opts ports.QueryOptions) ([]domain.CandidateSong, error) {
	if s.db.IsClosed() {
		return nil, fmt.Errorf("badgerindex: %w", badger.ErrDBClosed)
	}
	return s.mem.Query(ctx, vector, opts)
}

// Len reports the number of indexed songs.
func (s *Store) Len() int {
	return s.mem.Len()
}

func (s *Store) Close() error {
	return s.db.Close()
}
