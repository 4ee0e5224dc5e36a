package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Notifier delivers a text message to a phone number.
type Notifier interface {
	Send(ctx context.Context, phone, message string) error
}

// SMSClient sends messages via an HTTP SMS gateway. The gateway takes
// the recipient and body as query parameters on a POST.
type SMSClient struct {
	gatewayURL string
	client     *http.Client
}

// NewSMSClient creates a gateway client with a bounded request timeout.
func NewSMSClient(gatewayURL string, timeout time.Duration) *SMSClient {
	return &SMSClient{
		gatewayURL: gatewayURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// Send posts one message to the gateway. Non-2xx responses are errors.
func (c *SMSClient) Send(ctx context.Context, phone, message string) error {
	u, err := url.Parse(c.gatewayURL)
	if err != nil {
		return fmt.Errorf("parsing gateway URL: %w", err)
	}

	q := u.Query()
	q.Set("to", phone)
	q.Set("msg", message)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return fmt.Errorf("building gateway request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling SMS gateway: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining for connection reuse

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("SMS gateway returned %d", resp.StatusCode)
	}
	return nil
}

// NopNotifier discards all messages. Used when SMS is disabled.
type NopNotifier struct{}

// Send does nothing and always succeeds.
func (NopNotifier) Send(context.Context, string, string) error { return nil }
