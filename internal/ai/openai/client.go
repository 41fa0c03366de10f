// Package openai implements ai.Completer on top of the Chat Completions HTTP API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/talentlens/internal/ai"
	"github.com/spigell/talentlens/internal/logger"
	"github.com/spigell/talentlens/internal/utils"
)

const (
	providerName   = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"

	defaultMaxRetries   = 3
	defaultTimeout      = 30 * time.Second
	defaultBackoff      = time.Second
	defaultMaxLogLength = 200
)

// Options configures a Client.
type Options struct {
	APIKey       string
	Model        string
	BaseURL      string
	MaxRetries   int
	Timeout      time.Duration
	Backoff      time.Duration
	MaxLogLength int
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// Client talks to an OpenAI compatible chat completions endpoint.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	maxRetries int
	backoff    time.Duration
	maxLogLen  int
	http       *http.Client
	logger     *zap.Logger
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openai api error (status %d): %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed if repeated.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

func New(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		apiKey:     apiKey,
		model:      model,
		endpoint:   baseURL + "/chat/completions",
		maxRetries: maxRetries,
		backoff:    backoff,
		maxLogLen:  maxLogLen,
		http:       httpClient,
		logger:     logger.WithCommonFields(opts.Logger, providerName, model),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float32         `json:"temperature"`
	Seed           *int32          `json:"seed,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Complete implements ai.Completer.
func (c *Client) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	payload := strings.TrimSpace(req.Payload)
	if payload == "" {
		return "", errors.New("prompt must not be empty")
	}

	body := chatRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		Seed:        req.Seed,
	}
	if system := strings.TrimSpace(req.System); system != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: system})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: payload})
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		c.logger.Debug("openai request",
			zap.Int("attempt", attempt),
			zap.Int("payload_length", utf8.RuneCountInString(payload)),
			zap.String("payload_preview", utils.TruncateForLog(payload, c.maxLogLen)),
		)

		output, err := c.do(ctx, encoded)
		if err == nil {
			c.logger.Debug("openai response",
				zap.Int("attempt", attempt),
				zap.String("response_preview", utils.TruncateForLog(output, c.maxLogLen)),
			)
			return output, nil
		}
		lastErr = err

		delay, retry := c.retryDelay(ctx, err, attempt)
		if !retry || attempt == c.maxRetries {
			break
		}

		c.logger.Warn("openai request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := utils.WaitFor(ctx, delay); err != nil {
			return "", fmt.Errorf("openai chat completion: %w", err)
		}
	}

	return "", fmt.Errorf("openai chat completion: %w", lastErr)
}

func (c *Client) do(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{
			StatusCode: resp.StatusCode,
			Body:       utils.TruncateForLog(string(respBody), 500),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", ai.ErrEmptyResponse
	}
	if parsed.Choices[0].FinishReason == "length" {
		return "", errors.New("output truncated (finish_reason: length)")
	}

	output := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if output == "" {
		return "", ai.ErrEmptyResponse
	}
	return output, nil
}

// retryDelay retries transport failures and temporary statuses only.
func (c *Client) retryDelay(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if ctx.Err() != nil {
		return 0, false
	}

	backoff := c.backoff * time.Duration(1<<(attempt-1))

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if !statusErr.Temporary() {
			return 0, false
		}
		if statusErr.RetryAfter > backoff {
			return statusErr.RetryAfter, true
		}
		return backoff, true
	}

	if errors.Is(err, ai.ErrEmptyResponse) {
		return 0, false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return backoff, true
	}

	return 0, false
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// Provider implements ai.Completer.
func (c *Client) Provider() string { return providerName }

// Model implements ai.Completer.
func (c *Client) Model() string { return c.model }
