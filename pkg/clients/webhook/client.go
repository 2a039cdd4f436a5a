package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client posts text notifications to an incoming-webhook endpoint
// (Slack, Teams, Google Chat and similar accept this shape).
type Client interface {
	SendText(ctx context.Context, text string) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook client for url.
func NewClient(url string, timeout time.Duration) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &APIClient{
		httpClient: restyClient,
		url:        url,
	}
}

type textPayload struct {
	Text string `json:"text"`
}

// apiError represents the error body most webhook receivers return.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SendText delivers text as {"text": ...}.
func (c *APIClient) SendText(ctx context.Context, text string) error {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(textPayload{Text: text}).
		SetError(apiErr).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("send webhook message: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		if message == "" {
			message = resp.String()
		}
		return fmt.Errorf("webhook error: code=%d, message=%s", resp.StatusCode(), message)
	}

	return nil
}
