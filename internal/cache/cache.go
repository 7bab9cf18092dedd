package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ogero/movies-api/internal/common"
)

// Cache is a TTL key value store backed by badger.
type Cache struct {
	db *badger.DB
}

// Open opens (or creates) the cache DB at path. An empty path keeps everything in memory.
func Open(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path).
		WithNumVersionsToKeep(0).
		WithValueLogFileSize(1024 * 1024 * 100).
		WithLogger(&l{})
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to badger.Open: %w", err)
	}

	return &Cache{db: db}, nil
}

// Memoize retrieves a cached value for the specified cacheKey.
// If the value is present it is returned. Otherwise, the provided function fn
// is called to compute the value, which is then stored in the cache
// with the specified expiration and returned. If fn returns an error,
// Memoize returns it and nothing is stored.
func Memoize[V any](c *Cache, cacheKey string, ttl time.Duration, fn func() (*V, error)) (*V, error) {

	value := new(V)

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cacheKey))
		if err != nil {
			return err
		}

		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, value)
		})
		if err != nil {
			return fmt.Errorf("failed to json.Unmarshal: %w", err)
		}

		return nil
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	} else if err == nil {
		return value, nil
	}

	value, err = fn()
	if err != nil {
		return nil, err
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		valueJSONBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to json.Marshal: %w", err)
		}
		entry := badger.NewEntry([]byte(cacheKey), valueJSONBytes).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store on cache: %w", err)
	}

	return value, nil
}

// Contains reports whether cacheKey holds an unexpired value.
func (c *Cache) Contains(cacheKey string) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(cacheKey))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get from cache: %w", err)
	}

	return true, nil
}

// MarkSeen records cacheKey for ttl and reports whether it had already been recorded.
// Check and record happen in a single transaction.
func (c *Cache) MarkSeen(cacheKey string, ttl time.Duration) (bool, error) {
	seen := false

	err := c.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(cacheKey))
		if err == nil {
			seen = true
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		return txn.SetEntry(badger.NewEntry([]byte(cacheKey), []byte{1}).WithTTL(ttl))
	})
	if err != nil {
		return false, fmt.Errorf("failed to mark on cache: %w", err)
	}

	return seen, nil
}

// Close closes the cache DB. It's crucial to call it to ensure all the pending updates make their way to disk. Calling DB.Close() multiple times would still only close the DB once.
func (c *Cache) Close() error {
	return c.db.Close()
}

type l struct{}

func (l *l) Errorf(s string, i ...interface{}) {
	common.Log.Error(fmt.Sprintf(s, i...))
}

func (l *l) Warningf(s string, i ...interface{}) {
	common.Log.Warn(fmt.Sprintf(s, i...))
}

func (l *l) Infof(s string, i ...interface{}) {
	common.Log.Debug(fmt.Sprintf(s, i...))
}

func (l *l) Debugf(s string, i ...interface{}) {
	common.Log.Debug(fmt.Sprintf(s, i...))
}
