// Package analysis scores two previously uploaded files against each other.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/talentlens/internal/documents"
	"github.com/spigell/talentlens/internal/fit"
	"github.com/spigell/talentlens/internal/scoring"
	"github.com/spigell/talentlens/internal/storage"
)

// Normalizer turns file bytes into a structured document.
type Normalizer interface {
	Normalize(ctx context.Context, filename string, data []byte, kind documents.Kind) (*documents.Structured, error)
}

// Scorer scores a structured pair with a named strategy.
type Scorer interface {
	Score(ctx context.Context, resume *documents.Resume, job *documents.JobDescription, strategy scoring.Strategy) (fit.Report, error)
}

// Request names the two stored files to compare.
type Request struct {
	ResumeID         string           `json:"resume_id" binding:"required"`
	JobDescriptionID string           `json:"job_description_id" binding:"required"`
	Strategy         scoring.Strategy `json:"strategy,omitempty"`
}

// ParsedDocument is a normalized document as returned to clients.
type ParsedDocument struct {
	OriginalText    string `json:"original_text"`
	MarkdownContent string `json:"markdown_content"`
	StructuredData  any    `json:"structured_data"`
}

// Result is the analysis response body.
type Result struct {
	ResumeID             string         `json:"resumeId"`
	FileName             string         `json:"fileName"`
	ParsedResume         ParsedDocument `json:"parsed_resume"`
	ParsedJobDescription ParsedDocument `json:"parsed_job_description"`
	AnalysisResults      fit.Report     `json:"analysis_results"`
}

type Service struct {
	store      storage.Store
	normalizer Normalizer
	scorer     Scorer
	logger     *zap.Logger
}

func NewService(store storage.Store, normalizer Normalizer, scorer Scorer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, normalizer: normalizer, scorer: scorer, logger: logger}
}

// Analyze loads both files, normalizes them concurrently and scores the pair.
// Both stored files are deleted afterwards, whatever the outcome.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	if req.ResumeID == "" || req.JobDescriptionID == "" {
		return nil, errors.New("resume_id and job_description_id are required")
	}
	defer s.cleanup(req.ResumeID, req.JobDescriptionID)

	resumeFile, err := s.store.Get(ctx, req.ResumeID)
	if err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	jobFile, err := s.store.Get(ctx, req.JobDescriptionID)
	if err != nil {
		return nil, fmt.Errorf("job description: %w", err)
	}

	var resume, job *documents.Structured
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := s.normalizer.Normalize(gctx, resumeFile.Name, resumeFile.Data, documents.KindResume)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		resume = doc
		return nil
	})
	g.Go(func() error {
		doc, err := s.normalizer.Normalize(gctx, jobFile.Name, jobFile.Data, documents.KindJobDescription)
		if err != nil {
			return fmt.Errorf("job description: %w", err)
		}
		job = doc
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report, err := s.scorer.Score(ctx, resume.Resume, job.Job, req.Strategy)
	if err != nil {
		return nil, err
	}

	s.logger.Info("analysis completed",
		zap.String("resume_id", req.ResumeID),
		zap.String("job_description_id", req.JobDescriptionID),
		zap.Float64("overall_fit", report.OverallFit),
	)

	return &Result{
		ResumeID:             req.ResumeID,
		FileName:             resumeFile.Name,
		ParsedResume:         parsed(resume),
		ParsedJobDescription: parsed(job),
		AnalysisResults:      report,
	}, nil
}

func (s *Service) cleanup(ids ...string) {
	// The request context may already be cancelled.
	ctx := context.Background()
	for _, id := range ids {
		if err := s.store.Delete(ctx, id); err != nil {
			s.logger.Warn("failed to delete stored file", zap.String("file_id", id), zap.Error(err))
		}
	}
}

func parsed(doc *documents.Structured) ParsedDocument {
	return ParsedDocument{
		OriginalText:    doc.Raw,
		MarkdownContent: doc.Markdown,
		StructuredData:  doc.Data(),
	}
}
