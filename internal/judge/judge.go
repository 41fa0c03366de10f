// Package judge asks a language model for a qualitative fit evaluation and
// maps its loosely structured answer onto fit.Report.
package judge

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/talentlens/internal/ai"
	"github.com/spigell/talentlens/internal/documents"
	"github.com/spigell/talentlens/internal/fit"
	"github.com/spigell/talentlens/internal/utils"
)

//go:embed prompt.md
var systemPrompt string

const (
	defaultTemperature  = 0.5
	defaultMaxLogLength = 200
)

// RawJudgment is the decoded JSON object returned by the model.
type RawJudgment map[string]any

// Options tunes the judge request.
type Options struct {
	// Temperature defaults to 0.5 when nil and is clamped to [0, 0.5].
	// Zero is kept.
	Temperature  *float32
	Seed         *int32
	MaxLogLength int
}

// Judge evaluates one resume against one job description per call and keeps
// no state between calls.
type Judge struct {
	completer   ai.Completer
	temperature float32
	seed        *int32
	maxLogLen   int
	logger      *zap.Logger
}

func New(completer ai.Completer, logger *zap.Logger, opts Options) *Judge {
	if logger == nil {
		logger = zap.NewNop()
	}
	temperature := float32(defaultTemperature)
	if opts.Temperature != nil {
		temperature = min(max(*opts.Temperature, 0), defaultTemperature)
	}
	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Judge{
		completer:   completer,
		temperature: temperature,
		seed:        opts.Seed,
		maxLogLen:   maxLogLen,
		logger:      logger,
	}
}

type judgmentPayload struct {
	JobDescription *documents.JobDescription `json:"job_description"`
	Resume         *documents.Resume         `json:"resume"`
}

// Judge sends both documents to the model and decodes its JSON answer.
func (j *Judge) Judge(ctx context.Context, resume *documents.Resume, job *documents.JobDescription) (RawJudgment, error) {
	if j == nil || j.completer == nil {
		return nil, errors.New("judge has no completion client")
	}
	if resume == nil {
		return nil, errors.New("resume is required")
	}
	if job == nil {
		return nil, errors.New("job description is required")
	}

	payload, err := json.Marshal(judgmentPayload{JobDescription: job, Resume: resume})
	if err != nil {
		return nil, fmt.Errorf("marshal judgment payload: %w", err)
	}

	j.logger.Debug("judge request",
		zap.Int("payload_length", utf8.RuneCount(payload)),
		zap.String("payload_preview", utils.TruncateForLog(string(payload), j.maxLogLen)),
	)

	raw, err := j.completer.Complete(ctx, ai.CompletionRequest{
		System:      systemPrompt,
		Payload:     string(payload),
		Temperature: j.temperature,
		Seed:        j.seed,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("request judgment: %w", err)
	}

	j.logger.Debug("judge response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, j.maxLogLen)),
	)

	var judgment RawJudgment
	if err := json.Unmarshal([]byte(ai.ExtractJSON(raw)), &judgment); err != nil {
		return nil, fmt.Errorf("parse judgment: %w", err)
	}
	if judgment == nil {
		return nil, errors.New("parse judgment: response is not a JSON object")
	}

	return judgment, nil
}

// Evaluate runs Judge and ToFitReport. Any failure yields a degraded report
// instead of an error.
func (j *Judge) Evaluate(ctx context.Context, resume *documents.Resume, job *documents.JobDescription) fit.Report {
	raw, err := j.Judge(ctx, resume, job)
	if err != nil {
		j.logger.Error("judge failed, returning degraded report", zap.Error(err))
		return fit.Degraded(err)
	}

	report, err := ToFitReport(raw)
	if err != nil {
		j.logger.Error("judgment has unexpected shape, returning degraded report", zap.Error(err))
		return fit.Degraded(err)
	}

	return report
}

// Model names the backing model for reports and logs.
func (j *Judge) Model() string {
	if j == nil || j.completer == nil {
		return ""
	}
	return j.completer.Provider() + "/" + j.completer.Model()
}

func joinNonEmpty(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, ", ")
}
