package inference

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"limpopo-ai/internal/domain"
)

const (
	DefaultEndpoint      = "https://models.github.ai/inference"
	DefaultModel         = "openai/gpt-5"
	DefaultSystemMessage = "You are a helpful assistant."
	DefaultTimeout       = 60 * time.Second

	// ErrorPrefix starts every failure string returned by Ask.
	ErrorPrefix = "Error getting AI response: "
)

// Config is the fixed configuration of a Client. Endpoint and Model fall back
// to DefaultEndpoint and DefaultModel when empty; Credential is required.
type Config struct {
	Endpoint   string
	Model      string
	Credential string
	Timeout    time.Duration
}

// Client sends single-turn chat completions to a GitHub Models compatible
// inference endpoint. It holds no per-call state and is safe for concurrent use.
type Client struct {
	endpoint   string
	model      string
	credential string
	timeout    time.Duration

	httpClient *http.Client
	transport  Transport
	logger     *slog.Logger
}

type Option func(*Client)

// WithTransport replaces the SDK-backed transport, e.g. with a stub in tests.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient validates cfg and returns a ready Client. A missing credential is
// reported as a *ConfigError naming GITHUB_TOKEN.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	credential := strings.TrimSpace(cfg.Credential)
	if credential == "" {
		return nil, missingCredential()
	}
	c := &Client{
		endpoint:   orDefault(cfg.Endpoint, DefaultEndpoint),
		model:      orDefault(cfg.Model, DefaultModel),
		credential: credential,
		timeout:    cfg.Timeout,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.transport == nil {
		c.transport = newOpenAITransport(c.endpoint, c.credential, c.resolvedHTTPClient())
	}
	return c, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: c.timeout}
}

func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) Model() string { return c.model }

// Complete sends the system and user messages and returns the content of the
// first choice. A blank systemMessage is replaced by DefaultSystemMessage.
// Every failure is returned as an *Error.
func (c *Client) Complete(ctx context.Context, userMessage, systemMessage string) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", newError(KindInvalidInput, errors.New("user message must not be empty"))
	}
	if strings.TrimSpace(systemMessage) == "" {
		systemMessage = DefaultSystemMessage
	}

	start := time.Now()
	completion, err := c.transport.CreateChatCompletion(ctx, domain.ChatRequest{
		Model: c.model,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: systemMessage},
			{Role: domain.RoleUser, Content: userMessage},
		},
	})
	if err != nil {
		var infErr *Error
		if errors.As(err, &infErr) {
			return "", err
		}
		return "", newError(KindTransport, err)
	}
	if len(completion.Choices) == 0 {
		return "", newError(KindEmptyResponse, errors.New("no choices in response"))
	}

	c.logger.Debug("inference completion",
		"model", c.model,
		"choices", len(completion.Choices),
		"elapsed", time.Since(start),
	)
	return completion.Choices[0].Message.Content, nil
}

// Ask is Complete flattened to a single string: failures come back as
// ErrorPrefix followed by the error text instead of an error value. Callers
// that need to tell answers from failures should use Complete.
func (c *Client) Ask(ctx context.Context, userMessage, systemMessage string) string {
	answer, err := c.Complete(ctx, userMessage, systemMessage)
	if err != nil {
		c.logger.Warn("inference call failed", "kind", string(KindOf(err)), "err", err)
		return ErrorPrefix + err.Error()
	}
	return answer
}

// Respond builds a one-off Client from cfg and returns Ask's answer. Only a
// configuration failure is returned as an error.
func Respond(ctx context.Context, cfg Config, userMessage, systemMessage string, opts ...Option) (string, error) {
	c, err := NewClient(cfg, opts...)
	if err != nil {
		return "", err
	}
	return c.Ask(ctx, userMessage, systemMessage), nil
}
