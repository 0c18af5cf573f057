// Package source fetches the raw catalog datasets from the remote API.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"g2-yoyodex/internal/logger"
	"g2-yoyodex/internal/model"
	"g2-yoyodex/internal/normalize"
)

// StatusError is returned when the remote answers with a non-2xx status.
type StatusError struct {
	Resource model.Resource
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status code: %d", e.Resource, e.Code)
}

// Config holds the endpoint of each resource.
type Config struct {
	ItemsURL  string
	SpecsURL  string
	Timeout   time.Duration // 0 = no timeout
	UserAgent string
}

// Client performs one GET per resource and decodes the JSON body.
type Client struct {
	urls      map[model.Resource]string
	http      *http.Client
	userAgent string
}

// NewClient creates a client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		urls: map[model.Resource]string{
			model.ResourceItems: cfg.ItemsURL,
			model.ResourceSpecs: cfg.SpecsURL,
		},
		http:      httpClient,
		userAgent: cfg.UserAgent,
	}
}

// Fetch returns the decoded JSON payload of resource. Any JSON value is
// returned as is; shaping it into records is the caller's job.
func (c *Client) Fetch(ctx context.Context, resource model.Resource) (any, error) {
	url, ok := c.urls[resource]
	if !ok || url == "" {
		return nil, fmt.Errorf("fetch %s: no endpoint configured", resource)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Resource: resource, Code: resp.StatusCode}
	}

	var payload any
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("fetch %s: decode body: %w", resource, err)
	}
	// The body must hold exactly one JSON value.
	if err := dec.Decode(new(json.RawMessage)); err != io.EOF {
		return nil, fmt.Errorf("fetch %s: decode body: trailing data after JSON value", resource)
	}
	return payload, nil
}

// RecordFetcher adapts Client to return sanitized records.
type RecordFetcher struct {
	client     *Client
	normalizer *normalize.Normalizer
	log        *logger.Logger
}

// NewRecordFetcher wraps client.
func NewRecordFetcher(client *Client, n *normalize.Normalizer, log *logger.Logger) *RecordFetcher {
	return &RecordFetcher{
		client:     client,
		normalizer: n,
		log:        logger.OrNop(log).Component("source"),
	}
}

// Fetch downloads resource and cleans it. A non-array payload yields an
// empty dataset, not an error.
func (f *RecordFetcher) Fetch(ctx context.Context, resource model.Resource) ([]model.Record, error) {
	start := time.Now()
	payload, err := f.client.Fetch(ctx, resource)
	if err != nil {
		return nil, err
	}
	recs := f.normalizer.Clean(payload, resource)
	f.log.Debug("fetched", "resource", resource, "records", len(recs), "took", time.Since(start).Round(time.Millisecond))
	return recs, nil
}
