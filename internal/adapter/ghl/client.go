// Package ghl provides an HTTP client for the GoHighLevel CRM API, used by
// the crm_routing feature and the GHL webhook consumer.
package ghl

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

// Contact is a CRM contact upsert payload.
type Contact struct {
	ID         string            `json:"id,omitempty"`
	Email      string            `json:"email,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Name       string            `json:"name,omitempty"`
	LocationID string            `json:"locationId"`
	Tags       []string          `json:"tags,omitempty"`
	Custom     map[string]string `json:"customFields,omitempty"`
}

// Opportunity is a CRM pipeline opportunity.
type Opportunity struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	ContactID  string `json:"contactId"`
	PipelineID string `json:"pipelineId"`
	StageID    string `json:"stageId,omitempty"`
	Status     string `json:"status,omitempty"`
}

// Client talks to the GoHighLevel API.
type Client struct {
	baseURL    string
	apiKey     string
	locationID string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a GoHighLevel client scoped to one location. baseURL
// defaults to the public API when empty.
func NewClient(baseURL, apiKey, locationID string) *Client {
	if baseURL == "" {
		baseURL = "https://services.leadconnectorhq.com"
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		locationID: locationID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// UpsertContact creates or updates a contact and returns its ID.
func (c *Client) UpsertContact(ctx context.Context, contact Contact) (string, error) {
	if contact.LocationID == "" {
		contact.LocationID = c.locationID
	}
	body, err := json.Marshal(contact)
	if err != nil {
		return "", fmt.Errorf("marshal contact: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/contacts/upsert", body)
	if err != nil {
		return "", fmt.Errorf("upsert contact: %w", err)
	}

	var resp struct {
		Contact Contact `json:"contact"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("unmarshal contact: %w", err)
	}
	return resp.Contact.ID, nil
}

// CreateOpportunity opens a pipeline opportunity for a contact.
func (c *Client) CreateOpportunity(ctx context.Context, opp Opportunity) (string, error) {
	body, err := json.Marshal(opp)
	if err != nil {
		return "", fmt.Errorf("marshal opportunity: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/opportunities/", body)
	if err != nil {
		return "", fmt.Errorf("create opportunity: %w", err)
	}

	var resp struct {
		Opportunity Opportunity `json:"opportunity"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("unmarshal opportunity: %w", err)
	}
	return resp.Opportunity.ID, nil
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
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Version", "2021-07-28")

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
			return fmt.Errorf("ghl API error %d: %s", resp.StatusCode, string(data))
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
