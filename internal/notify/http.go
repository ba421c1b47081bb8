package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPNotifier posts {"to", "message"} to a RapidAPI-style SMS endpoint.
type HTTPNotifier struct {
	endpoint string
	host     string
	apiKey   string
	client   *http.Client
}

// NewHTTPNotifier validates the endpoint URL. A nil client gets a 10s timeout.
func NewHTTPNotifier(endpoint, apiKey string, client *http.Client) (*HTTPNotifier, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid sms endpoint %q", endpoint)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPNotifier{
		endpoint: endpoint,
		host:     u.Hostname(),
		apiKey:   apiKey,
		client:   client,
	}, nil
}

type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (h *HTTPNotifier) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(smsRequest{To: n.Phone, Message: n.Message})
	if err != nil {
		return fmt.Errorf("encode sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", h.apiKey)
	req.Header.Set("X-RapidAPI-Host", h.host)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
