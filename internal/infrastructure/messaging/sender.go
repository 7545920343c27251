package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tokoroti/backend/internal/application/chat"
)

// Config holds the connection settings for the outbound chat transport
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("messaging: base URL is required")
	}
	return nil
}

// HTTPSender implements chat.OutboundSender by posting messages to the
// chat platform's send endpoint. Used for pushes outside the webhook
// request/response cycle, e.g. restock acceptance notices.
type HTTPSender struct {
	config     *Config
	httpClient *http.Client
}

// NewHTTPSender creates a new HTTPSender
func NewHTTPSender(config *Config) (*HTTPSender, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSender{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type sendRequest struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// Send delivers one plain-text message to a customer
func (s *HTTPSender) Send(ctx context.Context, customerID, text string) error {
	body, err := json.Marshal(sendRequest{Recipient: customerID, Text: text})
	if err != nil {
		return fmt.Errorf("messaging: marshal request: %w", err)
	}

	url := strings.TrimRight(s.config.BaseURL, "/") + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("messaging: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.Token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("messaging: send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("messaging: send returned status %d", resp.StatusCode)
	}
	return nil
}

// Ensure HTTPSender implements OutboundSender
var _ chat.OutboundSender = (*HTTPSender)(nil)
