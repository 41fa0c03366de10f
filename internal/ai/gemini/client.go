package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/talentlens/internal/ai"
	"github.com/spigell/talentlens/internal/logger"
	"github.com/spigell/talentlens/internal/utils"
)

const (
	providerName = "gemini"
	defaultModel = "gemini-2.5-flash"

	defaultMaxRetries   = 3
	defaultTimeout      = 30 * time.Second
	defaultMaxLogLength = 200

	baseRetryDelay = time.Second
	// Quota errors asking to wait longer than this fail right away.
	maxQuotaDelay = 30 * time.Second
)

// wait is swapped in tests.
var wait = utils.WaitFor

var quotaDelayRe = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*(ms|s|sec|secs|second|seconds)?\b`)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := c.chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Options configures a Generator.
type Options struct {
	APIKey       string
	Model        string
	// BaseURL overrides the Gemini API endpoint, e.g. for a proxy.
	BaseURL      string
	MaxRetries   int
	Timeout      time.Duration
	MaxLogLength int
	Logger       *zap.Logger
}

// Generator sends single-turn chat requests to Gemini.
type Generator struct {
	chats      chatCreator
	model      string
	maxRetries int
	timeout    time.Duration
	maxLogLen  int
	logger     *zap.Logger
}

// NewGenerator creates a Generator for the Gemini API backend.
func NewGenerator(ctx context.Context, opts Options) (*Generator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: strings.TrimSpace(opts.BaseURL)},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Generator{
		chats:      genaiChats{chats: client.Chats},
		model:      model,
		maxRetries: maxRetries,
		timeout:    timeout,
		maxLogLen:  maxLogLen,
		logger:     logger.WithCommonFields(opts.Logger, providerName, model),
	}, nil
}

// Complete implements ai.Completer. Temporary API failures are retried up to
// the configured number of attempts; empty answers are not.
func (g *Generator) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	payload := strings.TrimSpace(req.Payload)
	if payload == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
		Seed:        req.Seed,
	}
	if system := strings.TrimSpace(req.System); system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	log := g.logger
	if log == nil {
		log = zap.NewNop()
	}

	attempts := g.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		log.Debug("gemini request",
			zap.Int("attempt", attempt),
			zap.Int("payload_length", utf8.RuneCountInString(payload)),
			zap.String("payload_preview", utils.TruncateForLog(payload, g.logLimit())),
		)

		output, err := g.send(ctx, config, payload)
		if err == nil {
			log.Debug("gemini response",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(output)),
				zap.String("response_preview", utils.TruncateForLog(output, g.logLimit())),
			)
			return output, nil
		}
		lastErr = err

		delay, retry := retryDelay(ctx, err, attempt)
		if !retry || attempt == attempts {
			break
		}

		log.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := wait(ctx, delay); err != nil {
			return "", fmt.Errorf("gemini generate content: %w", err)
		}
	}

	return "", fmt.Errorf("gemini generate content: %w", lastErr)
}

func (g *Generator) send(ctx context.Context, config *genai.GenerateContentConfig, payload string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	chat, err := g.chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: payload})
	if err != nil {
		return "", err
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ai.ErrEmptyResponse
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", ai.ErrEmptyResponse
	}
	return output, nil
}

// retryDelay decides whether err is worth another attempt and how long to wait.
func retryDelay(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if ctx.Err() != nil {
		return 0, false
	}

	backoff := time.Duration(math.Pow(2, float64(attempt-1))) * baseRetryDelay

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			if delay, ok := quotaDelay(apiErr.Message); ok {
				if delay > maxQuotaDelay {
					return 0, false
				}
				if delay > backoff {
					return delay, true
				}
			}
			return backoff, true
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return backoff, true
		default:
			return 0, false
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return backoff, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return backoff, true
	}

	return 0, false
}

func quotaDelay(message string) (time.Duration, bool) {
	m := quotaDelayRe.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if strings.EqualFold(m[2], "ms") {
		return time.Duration(value * float64(time.Millisecond)), true
	}
	return time.Duration(value * float64(time.Second)), true
}

func (g *Generator) logLimit() int {
	if g.maxLogLen <= 0 {
		return defaultMaxLogLength
	}
	return g.maxLogLen
}

// Provider implements ai.Completer.
func (g *Generator) Provider() string { return providerName }

// Model implements ai.Completer.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
