package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	gopenai "github.com/sashabaranov/go-openai"

	"eip-explainer/internal/domain"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = gopenai.GPT3Dot5Turbo
)

// SecretGetter resolves the API key from a parameter store.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	Message    string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d: %s", e.StatusCode, e.Message)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a one-shot chat completion client. The API key is either given
// directly or read from the parameter store on first use.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	model       string
	apiKey      string
	secrets     SecretGetter
	paramPrefix string

	mu  sync.Mutex
	api *gopenai.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		c.model = strings.TrimSpace(model)
	}
}

func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithParamStore reads the key from {prefix}/open-ai-token.
func WithParamStore(secrets SecretGetter, prefix string) Option {
	return func(c *Client) {
		c.secrets = secrets
		c.paramPrefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	}
}

func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		model:      DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" && c.secrets == nil {
		return nil, errors.New("openai: an API key or a paramstore getter is required")
	}
	if c.apiKey == "" && c.paramPrefix == "" {
		return nil, errors.New("openai: parameter prefix must not be empty")
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	return c, nil
}

// Model is the model name sent with every request.
func (c *Client) Model() string {
	return c.model
}

func (c *Client) tokenParameterName() string {
	return c.paramPrefix + "/open-ai-token"
}

// normalizeBaseURL makes sure the base URL ends in /v1.
func normalizeBaseURL(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return defaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

// resolveAPI builds the SDK client on first use. A failed key lookup is not
// cached so the next request tries again.
func (c *Client) resolveAPI(ctx context.Context) (*gopenai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.api != nil {
		return c.api, nil
	}

	key := c.apiKey
	if key == "" {
		var err error
		key, err = c.secrets.GetSecret(ctx, c.tokenParameterName())
		if err != nil {
			return nil, fmt.Errorf("openai: fetch token from paramstore: %w", err)
		}
	}

	cfg := gopenai.DefaultConfig(key)
	cfg.BaseURL = normalizeBaseURL(c.baseURL)
	if c.httpClient != nil {
		cfg.HTTPClient = c.httpClient
	}
	c.api = gopenai.NewClientWithConfig(cfg)
	return c.api, nil
}

// Complete sends one non-streaming chat completion and returns the first
// choice's content.
func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage, params domain.CompletionParams) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("openai: messages must not be empty")
	}
	api, err := c.resolveAPI(ctx)
	if err != nil {
		return "", err
	}

	req := gopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toSDKMessages(messages),
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}

	resp, err := api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", classify(err))
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func toSDKMessages(messages []domain.ChatMessage) []gopenai.ChatCompletionMessage {
	out := make([]gopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, gopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// classify turns SDK status errors into *HTTPStatusError.
func classify(err error) error {
	var apiErr *gopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &HTTPStatusError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *gopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &HTTPStatusError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return err
}
