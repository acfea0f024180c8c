package mediacache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var _ Cache = (*FileCache)(nil)

// FileCache persists the digest index as a single JSON document on disk.
// The whole index is rewritten on every Set; uploads are rare enough that
// this keeps the file human-inspectable without a real database.
type FileCache struct {
	path string

	mu      sync.Mutex
	entries map[string]Asset
}

func NewFileCache(path string) (*FileCache, error) {
	if path == "" {
		return nil, fmt.Errorf("media cache path is required")
	}

	c := &FileCache{
		path:    path,
		entries: make(map[string]Asset),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read media cache %q: %w", path, err)
	}

	// A corrupt cache file is treated as empty rather than fatal.
	if err := json.Unmarshal(data, &c.entries); err != nil {
		c.entries = make(map[string]Asset)
	}

	return c, nil
}

func (c *FileCache) Get(ctx context.Context, digest string) (*Asset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	asset, ok := c.entries[digest]
	if !ok {
		return nil, nil
	}
	return &asset, nil
}

func (c *FileCache) Set(ctx context.Context, digest string, asset Asset) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[digest] = asset

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal media cache: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create media cache dir: %w", err)
		}
	}

	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write media cache %q: %w", c.path, err)
	}
	return nil
}
