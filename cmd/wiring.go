package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talentlens/internal/ai"
	"github.com/spigell/talentlens/internal/ai/gemini"
	"github.com/spigell/talentlens/internal/ai/openai"
	"github.com/spigell/talentlens/internal/judge"
	"github.com/spigell/talentlens/internal/normalizer"
	"github.com/spigell/talentlens/internal/parser"
	"github.com/spigell/talentlens/internal/parser/llamaparse"
	"github.com/spigell/talentlens/internal/scoring"
	"github.com/spigell/talentlens/internal/secrets"
	"github.com/spigell/talentlens/internal/storage"
)

// errNoCredentials means no API key was configured at all, as opposed to a
// configured key that could not be read.
var errNoCredentials = errors.New("no credentials configured")

// components are the long-lived services shared by the score and serve commands.
type components struct {
	completer  ai.Completer
	normalizer *normalizer.Normalizer
	scorer     *scoring.FitScorer
}

func buildComponents(ctx context.Context, config *Config, log *zap.Logger) (*components, error) {
	completer, err := newCompleter(ctx, config.AI, log)
	switch {
	case errors.Is(err, errNoCredentials):
		log.Warn("language model is not available; llm scoring and document normalization are disabled", zap.Error(err))
	case err != nil:
		return nil, err
	}

	docParser, err := newParser(config.Parser, log)
	if err != nil {
		return nil, err
	}

	scorer, err := newScorer(config.Scoring, completer, config.AI.MaxLogLength, log)
	if err != nil {
		return nil, err
	}

	return &components{
		completer: completer,
		normalizer: normalizer.New(docParser, completer, log.Named("normalizer"), normalizer.Options{
			Temperature:  config.Normalizer.Temperature,
			Seed:         ai.Seed(config.Normalizer.Seed),
			MaxLogLength: config.AI.MaxLogLength,
		}),
		scorer: scorer,
	}, nil
}

func newCompleter(ctx context.Context, cfg AIConfig, log *zap.Logger) (ai.Completer, error) {
	var completer ai.Completer

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "gemini":
		apiKey, err := loadKey(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
		}, "set ai.gemini.api-key-file or GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}
		completer, err = gemini.NewGenerator(ctx, gemini.Options{
			APIKey:       apiKey,
			Model:        cfg.Gemini.Model,
			BaseURL:      cfg.Gemini.BaseURL,
			MaxRetries:   cfg.Gemini.MaxRetries,
			Timeout:      cfg.Gemini.Timeout,
			MaxLogLength: cfg.MaxLogLength,
			Logger:       log,
		})
		if err != nil {
			return nil, err
		}
	case "openai":
		apiKey, err := loadKey(secrets.Source{
			Name:  "openai api key",
			Value: cfg.OpenAI.APIKey,
			File:  cfg.OpenAI.APIKeyFile,
		}, "set ai.openai.api-key-file or OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		completer, err = openai.New(openai.Options{
			APIKey:       apiKey,
			Model:        cfg.OpenAI.Model,
			BaseURL:      cfg.OpenAI.BaseURL,
			MaxRetries:   cfg.OpenAI.MaxRetries,
			Timeout:      cfg.OpenAI.Timeout,
			MaxLogLength: cfg.MaxLogLength,
			Logger:       log,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	log.Info("language model configured",
		zap.String("provider", completer.Provider()),
		zap.String("model", completer.Model()),
		zap.Float64("rate_limit_rps", cfg.RateLimit.RPS),
	)

	return ai.WithRateLimit(completer, cfg.RateLimit.RPS, cfg.RateLimit.Burst), nil
}

func loadKey(src secrets.Source, hint string) (string, error) {
	if !secrets.Configured(src) {
		return "", fmt.Errorf("%s: %w (%s)", src.Name, errNoCredentials, hint)
	}
	return secrets.Load(src)
}

func newParser(cfg ParserConfig, log *zap.Logger) (parser.Parser, error) {
	switch cfg.Provider {
	case "text":
		return parser.NewRouter(parser.PlainText{}), nil
	case "", "llamaparse":
	default:
		return nil, fmt.Errorf("unsupported parser provider: %s", cfg.Provider)
	}

	var router *parser.Router
	token, err := loadKey(secrets.Source{
		Name:  "llama cloud api key",
		Value: cfg.LlamaParse.APIKey,
		File:  cfg.LlamaParse.APIKeyFile,
	}, "set parser.llamaparse.api-key-file or LLAMA_CLOUD_API_KEY")
	switch {
	case errors.Is(err, errNoCredentials):
		log.Warn("document parser is not configured; only plain text files can be read", zap.Error(err))
		router = parser.NewRouter(nil)
	case err != nil:
		return nil, err
	default:
		client := llamaparse.New(log.Named("llamaparse"), token)
		if cfg.LlamaParse.BaseURL != "" {
			client.APIURL = strings.TrimRight(cfg.LlamaParse.BaseURL, "/")
		}
		if cfg.LlamaParse.PollInterval > 0 {
			client.PollInterval = cfg.LlamaParse.PollInterval
		}
		if cfg.LlamaParse.Timeout > 0 {
			client.Timeout = cfg.LlamaParse.Timeout
		}
		router = parser.NewRouter(client)
	}

	if cfg.PlainTextLocally || err != nil {
		router.Route("txt", parser.PlainText{})
	}
	return router, nil
}

func newScorer(cfg ScoringConfig, completer ai.Completer, maxLogLength int, log *zap.Logger) (*scoring.FitScorer, error) {
	var evaluator scoring.Evaluator
	if completer != nil {
		temperature := cfg.Judge.Temperature
		evaluator = judge.New(completer, log.Named("judge"), judge.Options{
			Temperature:  &temperature,
			Seed:         ai.Seed(cfg.Judge.Seed),
			MaxLogLength: maxLogLength,
		})
	}

	strategy, err := scoring.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	var fallback scoring.Strategy
	if cfg.Fallback != "" {
		if fallback, err = scoring.ParseStrategy(cfg.Fallback); err != nil {
			return nil, err
		}
	}

	if strategy == scoring.LLM && evaluator == nil {
		log.Warn("llm strategy is disabled, using heuristic scoring by default")
		strategy = scoring.Heuristic
	}

	return scoring.New(log.Named("scoring"), scoring.Options{Default: strategy, Fallback: fallback},
		scoring.NewHeuristic(),
		scoring.NewLLM(evaluator),
		scoring.NewMock(),
	)
}

func newStore(ctx context.Context, cfg StorageConfig, log *zap.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return storage.NewMemory(log.Named("storage")), nil
	case "s3":
		return storage.NewS3(ctx, storage.S3Config{
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		}, log.Named("storage"))
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
