// Package normalizer turns an uploaded file into a schema-valid structured
// resume or job description.
package normalizer

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talentlens/internal/ai"
	"github.com/spigell/talentlens/internal/documents"
	"github.com/spigell/talentlens/internal/logger"
	"github.com/spigell/talentlens/internal/parser"
	"github.com/spigell/talentlens/internal/utils"
)

var (
	//go:embed prompts/resume.md
	resumePrompt string
	//go:embed prompts/job_description.md
	jobDescriptionPrompt string
)

const (
	sectionSeparator    = "\n\n"
	payloadPrefix       = "Parse this content:\n\n"
	defaultMaxLogLength = 200
)

// Options tunes the parsing completion.
type Options struct {
	Temperature  float32
	Seed         *int32
	MaxLogLength int
}

// DefaultOptions keeps parsing output stable between runs.
func DefaultOptions() Options {
	return Options{Temperature: 0.3, Seed: ai.Seed(42), MaxLogLength: defaultMaxLogLength}
}

// Normalizer holds no mutable state; one value serves concurrent requests.
type Normalizer struct {
	parser    parser.Parser
	completer ai.Completer
	opts      Options
	logger    *zap.Logger
}

func New(p parser.Parser, c ai.Completer, log *zap.Logger, opts Options) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	return &Normalizer{parser: p, completer: c, opts: opts, logger: log}
}

// Prompt returns the system instruction used for kind.
func Prompt(kind documents.Kind) (string, error) {
	switch kind {
	case documents.KindResume:
		return resumePrompt, nil
	case documents.KindJobDescription:
		return jobDescriptionPrompt, nil
	default:
		return "", fmt.Errorf("unknown document kind %q", kind)
	}
}

// Normalize extracts text from data, asks the model for the structured
// record and validates it. Nothing is retried here.
func (n *Normalizer) Normalize(ctx context.Context, filename string, data []byte, kind documents.Kind) (*documents.Structured, error) {
	prompt, err := Prompt(kind)
	if err != nil {
		return nil, err
	}
	if n.parser == nil || n.completer == nil {
		return nil, errors.New("normalizer is not configured")
	}

	log := logger.WithFields(n.logger,
		zap.String(logger.FieldDocumentKind, string(kind)),
		zap.String("filename", filename),
	)

	sections, err := n.parser.Parse(ctx, filename, data)
	if err != nil {
		return nil, &ExtractionError{Filename: filename, Err: err}
	}
	markdown := joinSections(sections)
	if markdown == "" {
		return nil, &ExtractionError{Filename: filename}
	}
	log.Info("document text extracted", zap.Int("sections", len(sections)), zap.Int("length", len(markdown)))
	log.Debug("document text preview", zap.String("preview", utils.TruncateForLog(markdown, n.opts.MaxLogLength)))

	raw, err := n.completer.Complete(ctx, ai.CompletionRequest{
		System:      prompt,
		Payload:     payloadPrefix + markdown,
		Temperature: n.opts.Temperature,
		Seed:        n.opts.Seed,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("structuring %s: %w", filename, err)
	}
	log.Debug("structuring response", zap.String("preview", utils.TruncateForLog(raw, n.opts.MaxLogLength)))

	doc, err := n.FromJSON(kind, filename, []byte(ai.ExtractJSON(raw)))
	if err != nil {
		return nil, err
	}
	doc.Markdown = markdown
	doc.Raw = raw

	log.Info("document normalized")
	return doc, nil
}

// FromJSON validates an already structured record.
func (n *Normalizer) FromJSON(kind documents.Kind, filename string, raw []byte) (*documents.Structured, error) {
	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) || len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &MalformedResponseError{Raw: string(raw), Err: malformedReason(trimmed)}
	}

	doc := &documents.Structured{Kind: kind, Filename: filename, Raw: string(raw)}
	switch kind {
	case documents.KindResume:
		resume, err := documents.ParseResume(trimmed)
		if err != nil {
			return nil, err
		}
		resume.Skills = documents.DedupSkills(resume.Skills)
		doc.Resume = resume
	case documents.KindJobDescription:
		job, err := documents.ParseJobDescription(trimmed)
		if err != nil {
			return nil, err
		}
		doc.Job = job
	default:
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
	return doc, nil
}

func malformedReason(raw []byte) error {
	if len(raw) == 0 {
		return errors.New("empty response")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return fmt.Errorf("expected a JSON object, got %T", v)
}

func joinSections(sections []string) string {
	kept := make([]string, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			kept = append(kept, s)
		}
	}
	return strings.TrimSpace(strings.Join(kept, sectionSeparator))
}
