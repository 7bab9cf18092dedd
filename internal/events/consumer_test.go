package events

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ogero/movies-api/pkg/movie"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockReader replays msgs and then blocks until the context is done.
type mockReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	fetchErrs []error
	committed []kafka.Message
	drained   chan struct{}
}

func newMockReader(msgs ...kafka.Message) *mockReader {
	return &mockReader{msgs: msgs, drained: make(chan struct{})}
}

func (m *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if len(m.fetchErrs) > 0 {
		err := m.fetchErrs[0]
		m.fetchErrs = m.fetchErrs[1:]
		m.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(m.msgs) > 0 {
		msg := m.msgs[0]
		m.msgs = m.msgs[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()

	select {
	case <-m.drained:
	default:
		close(m.drained)
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockReader) Close() error { return nil }

type mapDedup struct {
	seen map[string]bool
}

func (d *mapDedup) Contains(key string) (bool, error) {
	return d.seen[key], nil
}

func (d *mapDedup) MarkSeen(key string, ttl time.Duration) (bool, error) {
	seen := d.seen[key]
	d.seen[key] = true
	return seen, nil
}

func runConsumer(t *testing.T, c *Consumer, r *mockReader) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-r.drained:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain messages")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func message(topic string, offset int64, value string) kafka.Message {
	return kafka.Message{Topic: topic, Offset: offset, Key: []byte("1"), Value: []byte(value)}
}

func TestConsumer_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events", "movie-events.log")
	r := newMockReader(
		message("movie-created", 0, `{"id":1,"name":"Inception","year":2010}`),
		message("movie-updated", 0, `{"id":1,"name":"Inception","year":2011}`),
		message("movie-created", 1, `not json`),
		message("movie-created", 0, `{"id":1,"name":"Inception","year":2010}`),
		message("movie-deleted", 0, `{"id":1,"name":"Inception","year":2011}`),
	)
	r.fetchErrs = []error{errors.New("temporary")}

	c := &Consumer{
		reader:     r,
		log:        NewLog(path),
		dedup:      &mapDedup{seen: map[string]bool{}},
		retryDelay: time.Millisecond,
	}
	runConsumer(t, c, r)

	entries, err := ReadLog(path)
	require.NoError(t, err)
	assert.Equal(t, []LogEntry{
		{Topic: "movie-created", Movie: movie.Movie{ID: 1, Name: "Inception", Year: 2010}},
		{Topic: "movie-updated", Movie: movie.Movie{ID: 1, Name: "Inception", Year: 2011}},
		{Topic: "movie-deleted", Movie: movie.Movie{ID: 1, Name: "Inception", Year: 2011}},
	}, entries)

	// Every fetched message is committed, including skipped ones
	assert.Len(t, r.committed, 5)
}

func TestConsumer_RunWithoutDedup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movie-events.log")
	r := newMockReader(
		message("movie-created", 0, `{"id":1,"name":"Inception","year":2010}`),
		message("movie-created", 0, `{"id":1,"name":"Inception","year":2010}`),
	)

	c := &Consumer{reader: r, log: NewLog(path), retryDelay: time.Millisecond}
	runConsumer(t, c, r)

	entries, err := ReadLog(path)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestConsumer_RunLogFailure(t *testing.T) {
	// A directory where the log file should be makes every append fail
	dir := t.TempDir()
	r := newMockReader(message("movie-created", 0, `{"id":1,"name":"Inception","year":2010}`))

	c := &Consumer{reader: r, log: NewLog(dir), retryDelay: time.Millisecond}

	err := c.Run(context.Background())
	assert.Error(t, err)
	assert.Empty(t, r.committed)
}
