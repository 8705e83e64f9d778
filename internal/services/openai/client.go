package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = goopenai.Whisper1
	defaultTimeout = 2 * time.Minute
)

var errMissingKey = errors.New("openai: api key is required")

// Config captures the endpoint settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client sends audio clips to a transcription endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	api        *goopenai.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client (for testing).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Client. Empty fields fall back to the package defaults.
func New(cfg Config, opts ...Option) *Client {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	apiConfig := goopenai.DefaultConfig(apiKey)
	apiConfig.BaseURL = baseURL
	apiConfig.HTTPClient = client.httpClient
	client.api = goopenai.NewClientWithConfig(apiConfig)
	return client
}

// Name identifies the engine in logs and run history.
func (c *Client) Name() string {
	return "openai"
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Transcribe uploads the WAV clip at path and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, path, language string) (string, error) {
	if c.apiKey == "" {
		return "", errMissingKey
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("openai: read clip: %w", err)
	}
	resp, err := c.api.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    c.model,
		FilePath: path,
		Language: strings.TrimSpace(language),
		Format:   goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", describeError("transcription request failed", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// HealthCheck confirms the endpoint is reachable and accepts the API key by
// looking up the configured model.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.apiKey == "" {
		return errMissingKey
	}
	if _, err := c.api.GetModel(ctx, c.model); err != nil {
		return describeError("health check failed", err)
	}
	return nil
}

// describeError flattens go-openai's error types into one line that keeps
// the HTTP status and the server's message.
func describeError(op string, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Type != "" {
			return fmt.Errorf("openai: API error %d (%s): %s: %w", apiErr.HTTPStatusCode, apiErr.Type, apiErr.Message, err)
		}
		return fmt.Errorf("openai: API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("openai: API status %d: %s: %w", reqErr.HTTPStatusCode, http.StatusText(reqErr.HTTPStatusCode), err)
	}
	return fmt.Errorf("openai: %s: %w", op, err)
}
