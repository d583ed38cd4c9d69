// Package pebble implements kstate.Backend on an embedded Pebble database.
package pebble

import (
	"context"
	"errors"
	"fmt"

	"github.com/birdayz/kplan/kstate"
	"github.com/cockroachdb/pebble"
)

type Store struct {
	db *pebble.DB
}

// Open opens or creates a database in dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Name() string { return "pebble" }

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := kstate.ValidateKey(key); err != nil {
		return err
	}
	return s.db.Set([]byte(key), value, pebble.Sync)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, kstate.ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	res := make([]byte, len(v))
	copy(res, v)
	return res, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.Delete([]byte(key), pebble.Sync)
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	opts := &pebble.IterOptions{}
	if prefix != "" {
		opts.LowerBound = []byte(prefix)
		opts.UpperBound = prefixEnd([]byte(prefix))
	}
	it := s.db.NewIter(opts)

	var keys []string
	for it.First(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if err := it.Close(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

func (s *Store) Close() error {
	if err := s.db.Flush(); err != nil {
		return err
	}
	return s.db.Close()
}

// prefixEnd returns the smallest key greater than every key with the given
// prefix, or nil if there is none.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
