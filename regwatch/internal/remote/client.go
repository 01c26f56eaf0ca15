// Package remote is the HTTP client for the fetch backend: the monitoring
// engine that fetches sources on schedule and records detected changes. The
// dashboard reads sources and changes through it and forces out-of-band
// fetches via TriggerFetch.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when the backend reports 404 for an entity.
var ErrNotFound = errors.New("remote: not found")

// Config configures the backend client.
type Config struct {
	// BaseURL of the fetch backend, e.g. "http://backend:8080".
	BaseURL string
	// Token is an optional bearer token sent with every request.
	Token string
	// Timeout is the per-request HTTP timeout. Default: 30s.
	Timeout time.Duration
	// UserAgent sent with requests.
	UserAgent string
	// MaxBytes caps response body sizes. Default: 10MB.
	MaxBytes int64
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024 // 10MB
	}
	if c.UserAgent == "" {
		c.UserAgent = "regwatch/1.0"
	}
}

// Client talks to the fetch backend.
type Client struct {
	base   string
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewClient validates the base URL and builds a client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("remote: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote: base url %q: scheme must be http or https", cfg.BaseURL)
	}
	return &Client{
		base:   strings.TrimRight(u.String(), "/"),
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// ListSources returns all sources known to the backend.
func (c *Client) ListSources(ctx context.Context) ([]Source, error) {
	var sources []Source
	if err := c.getJSON(ctx, "/api/sources", &sources); err != nil {
		return nil, fmt.Errorf("remote: list sources: %w", err)
	}
	return sources, nil
}

// GetSource returns one source by ID, or ErrNotFound.
func (c *Client) GetSource(ctx context.Context, sourceID string) (*Source, error) {
	var src Source
	if err := c.getJSON(ctx, "/api/sources/"+url.PathEscape(sourceID), &src); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("remote: get source %s: %w", sourceID, err)
	}
	return &src, nil
}

// ListChanges returns detected changes, newest first. sourceID filters to one
// source when non-empty; limit <= 0 lets the backend choose.
func (c *Client) ListChanges(ctx context.Context, sourceID string, limit int) ([]Change, error) {
	q := url.Values{}
	if sourceID != "" {
		q.Set("source_id", sourceID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/changes"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var changes []Change
	if err := c.getJSON(ctx, path, &changes); err != nil {
		return nil, fmt.Errorf("remote: list changes: %w", err)
	}
	return changes, nil
}

// ChangeContent returns the stored HTML content of one detected change, or
// ErrNotFound.
func (c *Client) ChangeContent(ctx context.Context, changeID string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/changes/"+url.PathEscape(changeID)+"/content", nil)
	if err != nil {
		return "", fmt.Errorf("remote: change content: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("remote: change content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("remote: change content: http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBytes))
	if err != nil {
		return "", fmt.Errorf("remote: change content: read body: %w", err)
	}
	return string(body), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	return nil
}

// errorMessage extracts the backend's error field from a response body, if
// the body is a JSON object carrying one.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error
}
