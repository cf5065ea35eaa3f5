// Package bolt provides a bbolt-backed KeyValueStore implementation.
// Each value is stored as an independent blob under its key; there is no
// cross-key transactionality beyond what single Put calls give us.
package bolt

import (
	"errors"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/evxf/melodia/internal/domain"
	"github.com/evxf/melodia/internal/ports"
)

var bucketName = []byte("melodia")

// Store is a persistent KeyValueStore on top of a single-bucket bbolt file.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the database file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, domain.NewRepositoryError("open", "", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, domain.NewRepositoryError("open", "", "failed to create bucket", err)
	}

	return &Store{db: db}, nil
}

// Get returns the value for key, or domain.ErrKeyNotFound when absent.
func (s *Store) Get(key string) (string, error) {
	var value []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return domain.ErrKeyNotFound
		}
		// v is only valid inside the transaction
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return "", domain.ErrKeyNotFound
		}
		return "", domain.NewRepositoryError("get", key, "view failed", err)
	}

	return string(value), nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return domain.NewRepositoryError("set", key, "update failed", err)
	}
	return nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Verify interface implementation
var _ ports.KeyValueStore = (*Store)(nil)
