package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tokoroti/backend/internal/application/chat"
)

// maxResponseSize is the maximum allowed response size from the gateway (1MB)
const maxResponseSize = 1 * 1024 * 1024

// ErrEmptyCompletion indicates the gateway returned no usable choice
var ErrEmptyCompletion = errors.New("extraction: empty completion")

// Config holds the connection settings for the extraction gateway, an
// OpenAI-compatible chat-completions endpoint.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("extraction: base URL is required")
	}
	if c.Model == "" {
		return errors.New("extraction: model is required")
	}
	return nil
}

// Client implements chat.Extractor against an OpenAI-compatible endpoint.
// It sends the catalog snapshot, the rolling transcript and the draft as
// context and expects a single strict-JSON object back.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new extraction gateway client
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Analyze reads one customer message into a structured extraction result
func (c *Client) Analyze(ctx context.Context, req chat.AnalyzeRequest) (*chat.ExtractionResult, error) {
	messages := c.buildMessages(req)

	body, err := json.Marshal(completionRequest{
		Model:          c.config.Model,
		Messages:       messages,
		Temperature:    c.config.Temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("extraction: marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("extraction: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("extraction: call gateway: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("extraction: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction: gateway returned status %d", resp.StatusCode)
	}

	var completion completionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, fmt.Errorf("extraction: decode response: %w", err)
	}
	if completion.Error != nil {
		return nil, fmt.Errorf("extraction: gateway error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	return parseResult(completion.Choices[0].Message.Content)
}

// parseResult decodes the model output into an ExtractionResult. Models
// sometimes wrap JSON in markdown fences despite instructions, so those are
// stripped first. Missing fields are fine; malformed JSON is not.
func parseResult(content string) (*chat.ExtractionResult, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var result chat.ExtractionResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("extraction: parse completion: %w", err)
	}
	return &result, nil
}

const systemPromptHeader = `Kamu adalah asisten pemesanan toko roti. Baca pesan pelanggan dan keluarkan
satu objek JSON, tanpa teks lain, dengan bentuk:
{"products":[{"name":"...","quantity":1}],"ambiguous_products":[{"name":"...","quantity":1}],
"remove_products":["..."],"customer_name":"...","delivery_date":"YYYY-MM-DD",
"delivery_address":"...","fulfillment_type":"pickup|delivery","pickup_time":"...",
"intent":"reset atau kosong","suggested_question":"..."}
Aturan:
- Masukkan produk ke "products" hanya jika namanya persis satu produk katalog.
- Sebutan yang cocok ke beberapa produk katalog masuk ke "ambiguous_products".
- "remove_products" hanya untuk permintaan menghapus item.
- Isi "intent":"reset" hanya jika pelanggan jelas ingin mengulang dari awal.
- Field yang tidak disebut pelanggan jangan diisi.`

// buildMessages assembles the completion messages: system prompt with the
// catalog and draft context, then the transcript window, then the new text.
func (c *Client) buildMessages(req chat.AnalyzeRequest) []chatMessage {
	var prompt strings.Builder
	prompt.WriteString(systemPromptHeader)

	prompt.WriteString("\n\nKatalog produk:\n")
	for _, product := range req.Catalog {
		prompt.WriteString(fmt.Sprintf("- %s (Rp%s)\n", product.Name, product.Price.StringFixed(0)))
	}

	if len(req.Draft.Items) > 0 || req.Draft.DeliveryDate != nil || req.Draft.FulfillmentType != "" {
		draftJSON, err := json.Marshal(req.Draft)
		if err == nil {
			prompt.WriteString("\nDraft pesanan sejauh ini:\n")
			prompt.Write(draftJSON)
			prompt.WriteString("\n")
		}
	}

	messages := make([]chatMessage, 0, len(req.Transcript)+2)
	messages = append(messages, chatMessage{Role: "system", Content: prompt.String()})

	for _, msg := range req.Transcript {
		role := "user"
		if msg.Role == "assistant" {
			role = "assistant"
		}
		messages = append(messages, chatMessage{Role: role, Content: msg.Text})
	}

	messages = append(messages, chatMessage{Role: "user", Content: req.Text})
	return messages
}

// Ensure Client implements Extractor
var _ chat.Extractor = (*Client)(nil)
