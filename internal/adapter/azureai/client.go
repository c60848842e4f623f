// Package azureai provides an HTTP client for Azure OpenAI deployments and
// the cognitive text-analytics endpoint.
package azureai

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

const apiVersion = "2024-06-01"

// ChatMessage is a single turn in a deployment chat request or response.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the deployment chat completions request body.
type ChatRequest struct {
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse is the deployment chat completions response body.
type ChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Analysis is the cognitive text-analytics verdict for a message.
type Analysis struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language,omitempty"`
}

// Client talks to an Azure AI resource.
type Client struct {
	endpoint   string
	apiKey     string
	deployment string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates an Azure AI client for the given resource endpoint and
// chat deployment name.
func NewClient(endpoint, apiKey, deployment string) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		deployment: deployment,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// ChatCompletion runs a chat completion against the configured deployment.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	path := fmt.Sprintf("/openai/deployments/%s/chat/completions?api-version=%s", c.deployment, apiVersion)
	data, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, fmt.Errorf("azure chat completion: %w", err)
	}

	var resp ChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal chat response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("azure chat completion: empty choices")
	}
	return &resp, nil
}

// AnalyzeText runs sentiment analysis on a message.
func (c *Client) AnalyzeText(ctx context.Context, text string) (*Analysis, error) {
	body, err := json.Marshal(map[string]any{
		"documents": []map[string]string{{"id": "1", "text": text}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analyze request: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/text/analytics/v3.1/sentiment", body)
	if err != nil {
		return nil, fmt.Errorf("analyze text: %w", err)
	}

	var resp struct {
		Documents []struct {
			Sentiment        string `json:"sentiment"`
			ConfidenceScores struct {
				Positive float64 `json:"positive"`
				Neutral  float64 `json:"neutral"`
				Negative float64 `json:"negative"`
			} `json:"confidenceScores"`
		} `json:"documents"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal analysis: %w", err)
	}
	if len(resp.Documents) == 0 {
		return nil, fmt.Errorf("analyze text: empty documents")
	}

	doc := resp.Documents[0]
	confidence := doc.ConfidenceScores.Positive
	switch doc.Sentiment {
	case "negative":
		confidence = doc.ConfidenceScores.Negative
	case "neutral":
		confidence = doc.ConfidenceScores.Neutral
	}
	return &Analysis{Sentiment: doc.Sentiment, Confidence: confidence}, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("api-key", c.apiKey)

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
			return fmt.Errorf("azure API error %d: %s", resp.StatusCode, string(data))
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
