package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ogero/movies-api/pkg/movie"
)

// LogEntry is a consumed movie event as stored in the event log: the movie plus the topic it came from.
type LogEntry struct {
	Topic string `json:"topic"`
	movie.Movie
}

// Log is an append only JSON lines file of consumed movie events.
type Log struct {
	mu   sync.Mutex
	path string
}

// NewLog creates a Log writing to path. The file and its directory are created on first append.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns the file the log writes to.
func (l *Log) Path() string {
	return l.path
}

// Append writes entry as a single JSON line.
func (l *Log) Append(entry LogEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to json.Marshal: %w", err)
	}
	b = append(b, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to os.MkdirAll: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to os.OpenFile: %w", err)
	}

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to os.File.Write: %w", err)
	}

	return f.Close()
}

// ReadLog parses every entry of the event log at path, in file order.
func ReadLog(path string) ([]LogEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to os.ReadFile: %w", err)
	}

	var entries []LogEntry
	for i, line := range bytes.Split(bytes.TrimSpace(b), []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var entry LogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("failed to json.Unmarshal line %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// FilterByTopicAndID keeps the entries of topic that refer to movieID.
func FilterByTopicAndID(entries []LogEntry, movieID int, topic string) []LogEntry {
	var out []LogEntry
	for _, e := range entries {
		if e.Topic == topic && e.ID == movieID {
			out = append(out, e)
		}
	}
	return out
}
