package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Event types posted to the webhook.
const (
	EventCapacityBreach  = "capacity_breach"
	EventOccupancyDigest = "occupancy_digest"
)

// Client posts JSON events to an operator-provided HTTP endpoint.
type Client interface {
	Post(ctx context.Context, event Event) error
}

// Event is the envelope delivered to the webhook.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook client. The token, when set, is sent as a bearer credential.
func NewClient(url, token string, timeout time.Duration) *APIClient {
	restyClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	if token != "" {
		restyClient.SetAuthToken(token)
	}

	return &APIClient{httpClient: restyClient, url: url}
}

// apiError represents an error payload returned by the receiver.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Post delivers the event and fails on transport errors or non-2xx replies.
func (c *APIClient) Post(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	apiErr := new(apiError)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(event).
		SetError(apiErr).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("post webhook event %s: %w", event.Type, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		return fmt.Errorf("webhook error: code=%d, message=%s", resp.StatusCode(), message)
	}

	return nil
}
