package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"call-analytics/internal/calls"
	"call-analytics/internal/config"
)

// Client talks to the external call source over HTTPS.
//
// The source exposes GET {base}/call returning a JSON array of call objects,
// authenticated with a per-tenant bearer token. An explicit timeout bounds
// worst-case poll latency; the source enforces none of its own.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg config.SourceConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("telephony: source base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Name() string { return "vapi" }

func (c *Client) FetchCalls(ctx context.Context, bearerToken string, limit int) ([]calls.SourceCall, error) {
	if bearerToken == "" {
		return nil, calls.ErrNoCredential
	}

	url := c.baseURL + "/call"
	if limit > 0 {
		url += "?limit=" + strconv.Itoa(limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", calls.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, calls.ErrUpstreamAuth
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: source returned %d", calls.ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("telephony: unexpected source status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", calls.ErrUpstreamUnavailable, err)
	}

	var out []calls.SourceCall
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("telephony: decoding source payload: %w", err)
	}
	return out, nil
}
