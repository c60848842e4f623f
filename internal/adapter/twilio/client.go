// Package twilio provides an HTTP client for Twilio number provisioning and
// SMS, used by voice-enabled agents.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/saintvisionai/platform/internal/resilience"
)

// Number is a provisioned incoming phone number.
type Number struct {
	SID         string `json:"sid"`
	PhoneNumber string `json:"phone_number"`
	VoiceURL    string `json:"voice_url,omitempty"`
}

// Client talks to the Twilio REST API. Twilio takes form-encoded requests and
// answers JSON.
type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a Twilio client. baseURL defaults to the public API when
// empty.
func NewClient(baseURL, accountSID, authToken string) *Client {
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	return &Client{
		baseURL:    baseURL,
		accountSID: accountSID,
		authToken:  authToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// ProvisionNumber buys an available number in the given area code and points
// its voice webhook at voiceURL.
func (c *Client) ProvisionNumber(ctx context.Context, areaCode, voiceURL string) (*Number, error) {
	form := url.Values{}
	form.Set("AreaCode", areaCode)
	form.Set("VoiceUrl", voiceURL)

	path := fmt.Sprintf("/2010-04-01/Accounts/%s/IncomingPhoneNumbers.json", c.accountSID)
	data, err := c.doRequest(ctx, http.MethodPost, path, form)
	if err != nil {
		return nil, fmt.Errorf("provision number: %w", err)
	}

	var num Number
	if err := json.Unmarshal(data, &num); err != nil {
		return nil, fmt.Errorf("unmarshal number: %w", err)
	}
	return &num, nil
}

// ReleaseNumber returns a provisioned number. Used as saga compensation.
func (c *Client) ReleaseNumber(ctx context.Context, sid string) error {
	path := fmt.Sprintf("/2010-04-01/Accounts/%s/IncomingPhoneNumbers/%s.json", c.accountSID, sid)
	if _, err := c.doRequest(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("release number %s: %w", sid, err)
	}
	return nil
}

// SendSMS sends a text message from a provisioned number.
func (c *Client) SendSMS(ctx context.Context, from, to, body string) error {
	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Body", body)

	path := fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", c.accountSID)
	if _, err := c.doRequest(ctx, http.MethodPost, path, form); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if form != nil {
			bodyReader = strings.NewReader(form.Encode())
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		req.SetBasicAuth(c.accountSID, c.authToken)

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
			return fmt.Errorf("twilio API error %d: %s", resp.StatusCode, string(data))
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
