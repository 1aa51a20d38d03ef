// Package boltstore persists auth tokens in a bbolt database so command
// line tools can reuse a login across runs.
package boltstore

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/adamwoolhether/gdata/auth"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("token not found")

var bucket = []byte("tokens")

// Store keeps token blobs keyed by name, e.g. an account email.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening token db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating token bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores tok under key, replacing any previous token.
func (s *Store) Put(key string, tok auth.Token) error {
	blob, err := auth.MarshalToken(tok)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), []byte(blob))
	})
}

// Get loads the token stored under key.
func (s *Store) Get(key string) (auth.Token, error) {
	var blob string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(key))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		blob = string(v)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return auth.UnmarshalToken(blob)
}

// Delete removes the token stored under key. Deleting a missing key is not
// an error.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

// Keys lists the stored keys in byte order.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})

	return keys, err
}

// LoadInto adds every stored token to ts in key order.
func (s *Store) LoadInto(ts *auth.Store) error {
	keys, err := s.Keys()
	if err != nil {
		return err
	}

	for _, k := range keys {
		tok, err := s.Get(k)
		if err != nil {
			return fmt.Errorf("loading %s: %w", k, err)
		}
		ts.Add(tok)
	}

	return nil
}
