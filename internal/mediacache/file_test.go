package mediacache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileCacheRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "media_cache.json")
	cache, err := NewFileCache(path)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	got, err := cache.Get(context.Background(), "sha256:abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Get() on empty cache = %+v, want nil", got)
	}

	asset := Asset{ID: "media-1", MimeType: "image/jpeg", Path: "/tmp/a.jpg", UploadedAt: 1_700_000_000}
	if err := cache.Set(context.Background(), "sha256:abc", asset); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err = cache.Get(context.Background(), "sha256:abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || got.ID != "media-1" {
		t.Fatalf("Get() = %+v, want media-1", got)
	}

	// A new cache instance over the same file sees the persisted entry.
	reopened, err := NewFileCache(path)
	if err != nil {
		t.Fatalf("NewFileCache() reopen error = %v", err)
	}
	got, err = reopened.Get(context.Background(), "sha256:abc")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got == nil || got.ID != "media-1" {
		t.Fatalf("reopened Get() = %+v, want media-1", got)
	}
}

func TestFileCacheCorruptFileTreatedAsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "media_cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cache, err := NewFileCache(path)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	got, err := cache.Get(context.Background(), "sha256:abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Get() = %+v, want nil for corrupt file", got)
	}
}

func TestFileCacheRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := NewFileCache(""); err == nil {
		t.Fatal("NewFileCache(\"\") should fail")
	}
}
