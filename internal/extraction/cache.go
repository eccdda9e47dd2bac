package extraction

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const resultsBucket = "results"

// Cache stores finished page results keyed by document, page and settings
type Cache interface {
	// Get returns a stored result and whether one was found
	Get(key string) (*Result, bool, error)

	// Put stores a result
	Put(key string, result *Result) error

	// Close closes the cache
	Close() error
}

// nopCache is used when no cache is configured
type nopCache struct{}

func (nopCache) Get(string) (*Result, bool, error) { return nil, false, nil }
func (nopCache) Put(string, *Result) error         { return nil }
func (nopCache) Close() error                      { return nil }

// BoltCache implements the Cache interface using BoltDB
type BoltCache struct {
	db *bbolt.DB
}

// NewBoltCache opens or creates a BoltDB result cache
func NewBoltCache(path string) (*BoltCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(resultsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltCache{db: db}, nil
}

// Get retrieves a result by key
func (b *BoltCache) Get(key string) (*Result, bool, error) {
	var result *Result
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(resultsBucket)).Get([]byte(key))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("unmarshaling result: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, result != nil, nil
}

// Put saves a result under key
func (b *BoltCache) Put(key string, result *Result) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		return tx.Bucket([]byte(resultsBucket)).Put([]byte(key), data)
	})
}

// Close closes the database connection
func (b *BoltCache) Close() error {
	return b.db.Close()
}
