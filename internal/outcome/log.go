// Package outcome persists one JSON line per terminal row disposition.
package outcome

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kursadbilgin/wabatch/internal/domain"
)

// Record is one outcome log line.
type Record struct {
	Status   domain.Status     `json:"status"`
	Reason   string            `json:"reason,omitempty"`
	Row      map[string]string `json:"row,omitempty"`
	Payload  map[string]any    `json:"payload,omitempty"`
	Response map[string]any    `json:"response,omitempty"`
}

// Log is a write-only, append-only JSONL sink. Opened in truncate mode at
// batch start, closed at batch end. The zero value (or a nil *Log) drops
// every write, which is the configured-off case.
type Log struct {
	mu   sync.Mutex
	file *os.File
}

// Open truncates/creates the log file at path. An empty path returns a no-op
// sink.
func Open(path string) (*Log, error) {
	if path == "" {
		return &Log{}, nil
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open outcome log %q: %w", path, err)
	}

	return &Log{file: file}, nil
}

// Write appends one record as a single line. Concurrent writers never
// interleave partial lines.
func (l *Log) Write(record Record) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome record: %w", err)
	}
	line = append(line, '\n')

	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("failed to write outcome record: %w", err)
	}
	return nil
}

func (l *Log) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil
	return file.Close()
}
