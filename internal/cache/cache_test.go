package cache_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ogero/movies-api/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type title struct {
	Name string
	Year int
}

func openCache(t *testing.T) *cache.Cache {
	t.Helper()

	c, err := cache.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestMemoize(t *testing.T) {
	c := openCache(t)

	calls := 0
	fn := func() (*title, error) {
		calls++
		return &title{Name: "Inception", Year: 2010}, nil
	}

	got, err := cache.Memoize(c, "imdb.title : tt1375666", time.Hour, fn)
	require.NoError(t, err)
	assert.Equal(t, &title{Name: "Inception", Year: 2010}, got)

	got, err = cache.Memoize(c, "imdb.title : tt1375666", time.Hour, fn)
	require.NoError(t, err)
	assert.Equal(t, &title{Name: "Inception", Year: 2010}, got)

	assert.Equal(t, 1, calls)
}

func TestMemoize_ErrorIsNotCached(t *testing.T) {
	c := openCache(t)

	boom := errors.New("boom")
	_, err := cache.Memoize(c, "key", time.Hour, func() (*title, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := cache.Memoize(c, "key", time.Hour, func() (*title, error) {
		return &title{Name: "Heat"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Heat", got.Name)
}

func TestMarkSeen(t *testing.T) {
	c := openCache(t)

	seen, err := c.MarkSeen("movie-created/0/1", time.Hour)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = c.MarkSeen("movie-created/0/1", time.Hour)
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = c.MarkSeen("movie-created/0/2", time.Hour)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestContains(t *testing.T) {
	c := openCache(t)

	found, err := c.Contains("k")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = c.MarkSeen("k", time.Hour)
	require.NoError(t, err)

	found, err = c.Contains("k")
	require.NoError(t, err)
	assert.True(t, found)
}
