package mediacache

import "context"

// Asset is the provider-side record for an uploaded media file.
type Asset struct {
	ID         string `json:"id"`
	MimeType   string `json:"mime_type"`
	Path       string `json:"path"`
	UploadedAt int64  `json:"uploaded_at"`
}

// Cache memoizes uploaded assets by content digest so identical bytes are
// uploaded at most once per cache lifetime. Implementations own their locking
// and must be safe for concurrent workers.
type Cache interface {
	// Get returns the cached asset for a digest, or nil when absent.
	Get(ctx context.Context, digest string) (*Asset, error)
	Set(ctx context.Context, digest string, asset Asset) error
}
