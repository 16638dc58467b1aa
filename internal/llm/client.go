package llm

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// ErrModelUnavailable indicates the language model could not produce a
// response within the retry budget.
var ErrModelUnavailable = eris.New("language model unavailable")

// ClientOptions controls how the completion client is initialised.
type ClientOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logrus.Logger
	MaxRetries int
	RetryDelay time.Duration
}

// Client wraps the OpenAI SDK chat service with bounded retry. Each call is
// all-or-nothing: the caller receives either the full completion text or an
// error, never a partial response.
type Client struct {
	chat       chatCompletionClient
	logger     *logrus.Logger
	baseURL    string
	maxRetries int
	retryDelay time.Duration
}

type chatCompletionClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Request describes one completion call. A nil Temperature leaves the
// provider default in place; an explicit zero requests greedy decoding.
type Request struct {
	Model          string
	System         string
	Prompt         string
	MaxTokens      int
	Temperature    *float64
	ResponseFormat openai.ChatCompletionNewParamsResponseFormatUnion
}

// NewClient constructs a Client configured for an OpenRouter-compatible API.
func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, eris.New("llm api key is required")
	}

	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}

	requestOptions := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(baseURL),
	}

	if opts.HTTPClient != nil {
		requestOptions = append(requestOptions, option.WithHTTPClient(opts.HTTPClient))
	}

	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}

	apiClient := openai.NewClient(requestOptions...)

	return &Client{
		chat:       &apiClient.Chat.Completions,
		logger:     opts.Logger,
		baseURL:    baseURL,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}, nil
}

// Logger exposes the logger associated with the client.
func (c *Client) Logger() *logrus.Logger {
	return c.logger
}

// BaseURL returns the configured base URL for outbound requests.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Complete issues a chat completion, retrying transient failures with
// exponential backoff and jitter. Permanent failures (bad request, content
// filter, refusal) return immediately; an exhausted retry budget wraps
// ErrModelUnavailable.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Model) == "" {
		return "", eris.New("model is required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", eris.New("prompt is required")
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(req.Model),
	}

	if req.System != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(req.System))
	}
	params.Messages = append(params.Messages, openai.UserMessage(req.Prompt))

	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	params.ResponseFormat = req.ResponseFormat

	var lastErr error
	for attempt := 0; ; attempt++ {
		content, err := c.createCompletion(ctx, params)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if !isTransient(err) {
			return "", err
		}

		if attempt >= c.maxRetries {
			c.logError(logrus.Fields{"model": req.Model, "attempts": attempt + 1}, lastErr, "llm retry budget exhausted")
			return "", eris.Wrapf(ErrModelUnavailable, "after %d attempts: %v", attempt+1, lastErr)
		}

		delay := c.backoff(attempt)
		c.logWarn(logrus.Fields{"model": req.Model, "attempt": attempt + 1, "delay": delay.String()}, lastErr, "transient llm failure, retrying")

		select {
		case <-ctx.Done():
			return "", eris.Wrap(ctx.Err(), "llm call cancelled during retry delay")
		case <-time.After(delay):
		}
	}
}

func (c *Client) createCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	completion, err := c.chat.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "requesting chat completion")
	}

	if len(completion.Choices) == 0 {
		return "", permanent(eris.New("llm completion returned no choices"))
	}

	choice := completion.Choices[0]
	if reason := strings.TrimSpace(choice.FinishReason); strings.EqualFold(reason, "content_filter") {
		return "", permanent(eris.New("llm blocked the request via content filter"))
	}

	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		return "", permanent(eris.Errorf("llm refused to generate content: %s", refusal))
	}

	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", permanent(eris.New("llm response content is empty"))
	}

	return content, nil
}

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func permanent(err error) error {
	return &permanentError{err: err}
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// backoff computes the delay before the next attempt: base * 2^attempt,
// scaled by a jitter factor in [0.5, 1.5).
func (c *Client) backoff(attempt int) time.Duration {
	factor := math.Pow(2, float64(attempt))
	jitter := 0.5 + rand.Float64()
	return time.Duration(float64(c.retryDelay) * factor * jitter)
}

// isTransient reports whether the failure is worth retrying. Rate limits,
// server errors and transport failures are transient; anything the provider
// rejected outright is not.
func isTransient(err error) bool {
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return true
		case apiErr.StatusCode == http.StatusRequestTimeout:
			return true
		case apiErr.StatusCode >= 500:
			return true
		default:
			return false
		}
	}

	return true
}

func (c *Client) logError(fields logrus.Fields, err error, message string) {
	if c.logger == nil || err == nil {
		return
	}

	entry := c.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func (c *Client) logWarn(fields logrus.Fields, err error, message string) {
	if c.logger == nil {
		return
	}

	entry := c.logger.WithFields(fields)
	if err != nil {
		entry = entry.WithField("error", err.Error())
	}
	entry.Warn(message)
}
