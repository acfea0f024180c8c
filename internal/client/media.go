package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kursadbilgin/wabatch/internal/domain"
	"github.com/kursadbilgin/wabatch/internal/mediacache"
)

const fallbackMimeType = "application/octet-stream"

// Upload pushes a local media file to the Cloud API and returns its asset
// record. Uploads are memoized by content digest: identical bytes resolve to
// the cached asset without touching the network again.
func (c *Client) Upload(ctx context.Context, path string) (mediacache.Asset, error) {
	if c == nil || c.client == nil {
		return mediacache.Asset{}, fmt.Errorf("client is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return mediacache.Asset{}, fmt.Errorf("%w: %s", domain.ErrMediaNotFound, path)
	}

	digest, err := hashFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return mediacache.Asset{}, fmt.Errorf("%w: %s", domain.ErrMediaNotFound, abs)
		}
		return mediacache.Asset{}, fmt.Errorf("failed to hash media %q: %w", abs, err)
	}

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, digest)
		if err != nil {
			return mediacache.Asset{}, fmt.Errorf("media cache lookup failed: %w", err)
		}
		if cached != nil && cached.ID != "" {
			c.metrics.IncMediaUpload("cached")
			return *cached, nil
		}
	}

	mimeType := mime.TypeByExtension(filepath.Ext(abs))
	if mimeType == "" {
		mimeType = fallbackMimeType
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetFile("file", abs).
		SetFormData(map[string]string{
			"messaging_product": messagingProduct,
			"type":              mimeType,
		}).
		Post(c.cfg.MediaURL())
	if err != nil {
		c.metrics.IncMediaUpload("failed")
		return mediacache.Asset{}, &APIError{Cause: err}
	}
	if response.StatusCode() >= http.StatusBadRequest {
		c.metrics.IncMediaUpload("failed")
		return mediacache.Asset{}, &APIError{
			StatusCode: response.StatusCode(),
			Body:       response.String(),
		}
	}

	var decoded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(response.Body(), &decoded); err != nil || decoded.ID == "" {
		c.metrics.IncMediaUpload("failed")
		return mediacache.Asset{}, &APIError{
			StatusCode: response.StatusCode(),
			Body:       response.String(),
			Cause:      fmt.Errorf("upload response missing media id"),
		}
	}

	asset := mediacache.Asset{
		ID:         decoded.ID,
		MimeType:   mimeType,
		Path:       abs,
		UploadedAt: time.Now().Unix(),
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, digest, asset); err != nil {
			return mediacache.Asset{}, fmt.Errorf("failed to store media cache entry: %w", err)
		}
	}

	c.metrics.IncMediaUpload("uploaded")
	return asset, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
