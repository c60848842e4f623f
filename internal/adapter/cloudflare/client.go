// Package cloudflare provides an HTTP client for Cloudflare's DNS record API,
// used to register agent subdomains.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/saintvisionai/platform/internal/resilience"
)

// Record is a DNS record in a Cloudflare zone.
type Record struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
}

// Client talks to the Cloudflare API for a single zone.
type Client struct {
	baseURL    string
	apiToken   string
	zoneID     string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a Cloudflare client scoped to one zone. baseURL defaults
// to the public API when empty.
func NewClient(baseURL, apiToken, zoneID string) *Client {
	if baseURL == "" {
		baseURL = "https://api.cloudflare.com/client/v4"
	}
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		zoneID:   zoneID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// CreateRecord registers a DNS record and returns its ID.
func (c *Client) CreateRecord(ctx context.Context, rec Record) (string, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal dns record: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/zones/"+c.zoneID+"/dns_records", body)
	if err != nil {
		return "", fmt.Errorf("create dns record %s: %w", rec.Name, err)
	}

	var resp struct {
		Result Record `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("unmarshal dns response: %w", err)
	}
	return resp.Result.ID, nil
}

// DeleteRecord removes a DNS record. Used as saga compensation.
func (c *Client) DeleteRecord(ctx context.Context, recordID string) error {
	if _, err := c.doRequest(ctx, http.MethodDelete, "/zones/"+c.zoneID+"/dns_records/"+recordID, nil); err != nil {
		return fmt.Errorf("delete dns record %s: %w", recordID, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("cloudflare API error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
