package outcome

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kursadbilgin/wabatch/internal/domain"
)

func TestLogWritesOneLinePerRecord(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	records := []Record{
		{Status: domain.StatusSkip, Reason: "missing phone", Row: map[string]string{"phone": ""}},
		{Status: domain.StatusSent, Response: map[string]any{"ok": true}},
		{Status: domain.StatusDryRun, Payload: map[string]any{"to": "+905551112233"}},
	}
	for _, r := range records {
		if err := log.Write(r); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("os.Open() error = %v", err)
	}
	defer file.Close()

	var lines []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", len(lines)+1, err)
		}
		lines = append(lines, rec)
	}

	if len(lines) != len(records) {
		t.Fatalf("lines = %d, want %d", len(lines), len(records))
	}
	if lines[0].Status != domain.StatusSkip || lines[0].Reason != "missing phone" {
		t.Fatalf("first line = %+v", lines[0])
	}
	if lines[1].Status != domain.StatusSent {
		t.Fatalf("second line = %+v", lines[1])
	}
}

func TestLogTruncatesOnOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.jsonl")
	if err := os.WriteFile(path, []byte("stale contents\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("file = %q, want empty after truncate", data)
	}
}

func TestLogNoopWhenUnconfigured(t *testing.T) {
	t.Parallel()

	log, err := Open("")
	if err != nil {
		t.Fatalf("Open(\"\") error = %v", err)
	}
	if err := log.Write(Record{Status: domain.StatusSent}); err != nil {
		t.Fatalf("Write() on no-op sink error = %v", err)
	}

	var nilLog *Log
	if err := nilLog.Write(Record{Status: domain.StatusSent}); err != nil {
		t.Fatalf("nil Write() error = %v", err)
	}
	if err := nilLog.Close(); err != nil {
		t.Fatalf("nil Close() error = %v", err)
	}
}

func TestLogConcurrentWritersKeepWholeLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = log.Write(Record{
					Status: domain.StatusSent,
					Response: map[string]any{
						"id": "wamid.0123456789abcdef",
					},
				})
			}
		}()
	}
	wg.Wait()
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("os.Open() error = %v", err)
	}
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("interleaved line at %d: %v", count+1, err)
		}
		count++
	}
	if count != writers*perWriter {
		t.Fatalf("lines = %d, want %d", count, writers*perWriter)
	}
}
