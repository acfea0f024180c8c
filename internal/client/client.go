package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kursadbilgin/wabatch/internal/mediacache"
	"github.com/kursadbilgin/wabatch/internal/observability"
)

const defaultTimeout = 60 * time.Second

// Config holds the Cloud API credentials and endpoint layout.
type Config struct {
	Token         string
	PhoneNumberID string
	APIVersion    string
	BaseURL       string
}

func (c Config) withDefaults() Config {
	if c.APIVersion == "" {
		c.APIVersion = "v20.0"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://graph.facebook.com"
	}
	return c
}

func (c Config) MessagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", c.BaseURL, c.APIVersion, c.PhoneNumberID)
}

func (c Config) MediaURL() string {
	return fmt.Sprintf("%s/%s/%s/media", c.BaseURL, c.APIVersion, c.PhoneNumberID)
}

// APIError is a Cloud API rejection (HTTP status >= 400).
type APIError struct {
	StatusCode int
	Body       string
	Cause      error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 3)
	parts = append(parts, "cloud api error")
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		parts = append(parts, body)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Client talks to the WhatsApp Cloud API. Safe for concurrent workers: the
// resty client is reused and the media cache owns its own locking.
type Client struct {
	cfg     Config
	client  *resty.Client
	cache   mediacache.Cache
	metrics *observability.Metrics
}

func (c *Client) SetMetrics(metrics *observability.Metrics) {
	if c == nil {
		return
	}
	c.metrics = metrics
}

func New(cfg Config, cache mediacache.Cache) (*Client, error) {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("cloud api token is required")
	}
	if strings.TrimSpace(cfg.PhoneNumberID) == "" {
		return nil, fmt.Errorf("phone number id is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("media cache is required")
	}

	rc := resty.New()
	rc.SetTimeout(defaultTimeout)
	rc.SetRetryCount(0)
	rc.SetAuthToken(cfg.Token)

	return NewWithClient(cfg, cache, rc)
}

func NewWithClient(cfg Config, cache mediacache.Cache, rc *resty.Client) (*Client, error) {
	cfg = cfg.withDefaults()
	if rc == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if rc.GetClient().Timeout == 0 {
		rc.SetTimeout(defaultTimeout)
	}

	return &Client{
		cfg:    cfg,
		client: rc,
		cache:  cache,
	}, nil
}

// Send posts one message payload and returns the decoded response document.
func (c *Client) Send(ctx context.Context, payload map[string]any) (map[string]any, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("client is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(c.cfg.MessagesURL())
	if err != nil {
		return nil, &APIError{Cause: err}
	}

	if response.StatusCode() >= http.StatusBadRequest {
		return nil, &APIError{
			StatusCode: response.StatusCode(),
			Body:       response.String(),
		}
	}

	var decoded map[string]any
	if err := json.Unmarshal(response.Body(), &decoded); err != nil {
		return nil, &APIError{
			StatusCode: response.StatusCode(),
			Body:       response.String(),
			Cause:      fmt.Errorf("failed to decode send response: %w", err),
		}
	}

	return decoded, nil
}
