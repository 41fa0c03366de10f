package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spigell/talentlens/internal/documents"
	"github.com/spigell/talentlens/internal/fit"
	"github.com/spigell/talentlens/internal/mocks"
	"github.com/spigell/talentlens/internal/normalizer"
	"github.com/spigell/talentlens/internal/scoring"
	"github.com/spigell/talentlens/internal/storage"
)

type fakeNormalizer struct {
	mock.Mock
}

func (f *fakeNormalizer) Normalize(ctx context.Context, filename string, data []byte, kind documents.Kind) (*documents.Structured, error) {
	args := f.Called(ctx, filename, data, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documents.Structured), args.Error(1)
}

type fakeScorer struct {
	mock.Mock
}

func (f *fakeScorer) Score(ctx context.Context, resume *documents.Resume, job *documents.JobDescription, strategy scoring.Strategy) (fit.Report, error) {
	args := f.Called(ctx, resume, job, strategy)
	return args.Get(0).(fit.Report), args.Error(1)
}

func seed(t *testing.T, store *storage.Memory) (string, string) {
	t.Helper()
	ctx := context.Background()
	resumeID, err := store.Put(ctx, storage.File{Name: "cv.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	jobID, err := store.Put(ctx, storage.File{Name: "job.txt", Data: []byte("Data Engineer")})
	require.NoError(t, err)
	return resumeID, jobID
}

func TestAnalyze(t *testing.T) {
	store := storage.NewMemory(nil)
	resumeID, jobID := seed(t, store)

	resume := &documents.Structured{Kind: documents.KindResume, Raw: "{}", Markdown: "# Jane", Resume: &documents.Resume{Skills: []string{"Go"}}}
	job := &documents.Structured{Kind: documents.KindJobDescription, Markdown: "Data Engineer", Job: &documents.JobDescription{JobTitle: "Data Engineer"}}

	norm := new(fakeNormalizer)
	norm.On("Normalize", mock.Anything, "cv.pdf", []byte("%PDF"), documents.KindResume).Return(resume, nil)
	norm.On("Normalize", mock.Anything, "job.txt", []byte("Data Engineer"), documents.KindJobDescription).Return(job, nil)

	scorer := new(fakeScorer)
	scorer.On("Score", mock.Anything, resume.Resume, job.Job, scoring.Heuristic).Return(fit.Report{OverallFit: 70}, nil)

	svc := NewService(store, norm, scorer, nil)
	result, err := svc.Analyze(context.Background(), Request{ResumeID: resumeID, JobDescriptionID: jobID, Strategy: scoring.Heuristic})
	require.NoError(t, err)

	assert.Equal(t, resumeID, result.ResumeID)
	assert.Equal(t, "cv.pdf", result.FileName)
	assert.Equal(t, "{}", result.ParsedResume.OriginalText)
	assert.Equal(t, "# Jane", result.ParsedResume.MarkdownContent)
	assert.Same(t, resume.Resume, result.ParsedResume.StructuredData)
	assert.Same(t, job.Job, result.ParsedJobDescription.StructuredData)
	assert.Equal(t, 70.0, result.AnalysisResults.OverallFit)
	assert.Zero(t, store.Len())
}

func TestAnalyzeMissingFileStillCleansUp(t *testing.T) {
	store := storage.NewMemory(nil)
	resumeID, _ := seed(t, store)

	svc := NewService(store, new(fakeNormalizer), new(fakeScorer), nil)
	_, err := svc.Analyze(context.Background(), Request{ResumeID: resumeID, JobDescriptionID: "missing.pdf"})

	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 1, store.Len())
	_, err = store.Get(context.Background(), resumeID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAnalyzeNormalizationFailure(t *testing.T) {
	store := storage.NewMemory(nil)
	resumeID, jobID := seed(t, store)

	norm := new(fakeNormalizer)
	norm.On("Normalize", mock.Anything, "cv.pdf", mock.Anything, documents.KindResume).
		Return(nil, &normalizer.ExtractionError{Filename: "cv.pdf"})
	norm.On("Normalize", mock.Anything, "job.txt", mock.Anything, documents.KindJobDescription).
		Return(&documents.Structured{Kind: documents.KindJobDescription, Job: &documents.JobDescription{}}, nil).Maybe()

	scorer := new(fakeScorer)
	svc := NewService(store, norm, scorer, nil)

	_, err := svc.Analyze(context.Background(), Request{ResumeID: resumeID, JobDescriptionID: jobID})

	var extraction *normalizer.ExtractionError
	require.ErrorAs(t, err, &extraction)
	scorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, store.Len())
}

func TestAnalyzeStrategyError(t *testing.T) {
	store := storage.NewMemory(nil)
	resumeID, jobID := seed(t, store)

	norm := new(fakeNormalizer)
	norm.On("Normalize", mock.Anything, mock.Anything, mock.Anything, documents.KindResume).
		Return(&documents.Structured{Kind: documents.KindResume, Resume: &documents.Resume{}}, nil)
	norm.On("Normalize", mock.Anything, mock.Anything, mock.Anything, documents.KindJobDescription).
		Return(&documents.Structured{Kind: documents.KindJobDescription, Job: &documents.JobDescription{}}, nil)

	scorer := new(fakeScorer)
	scorer.On("Score", mock.Anything, mock.Anything, mock.Anything, scoring.LLM).
		Return(fit.Report{}, scoring.ErrStrategyDisabled)

	svc := NewService(store, norm, scorer, nil)
	_, err := svc.Analyze(context.Background(), Request{ResumeID: resumeID, JobDescriptionID: jobID, Strategy: scoring.LLM})
	assert.ErrorIs(t, err, scoring.ErrStrategyDisabled)
}

func TestAnalyzeDeleteErrorIsLogged(t *testing.T) {
	store := new(mocks.MockStore)
	store.On("Get", mock.Anything, "a.pdf").Return(nil, storage.ErrNotFound)
	store.On("Delete", mock.Anything, mock.Anything).Return(errors.New("bucket unavailable"))

	svc := NewService(store, new(fakeNormalizer), new(fakeScorer), nil)
	_, err := svc.Analyze(context.Background(), Request{ResumeID: "a.pdf", JobDescriptionID: "b.pdf"})

	assert.ErrorIs(t, err, storage.ErrNotFound)
	store.AssertNumberOfCalls(t, "Delete", 2)
}

func TestAnalyzeRequiresIDs(t *testing.T) {
	svc := NewService(storage.NewMemory(nil), new(fakeNormalizer), new(fakeScorer), nil)
	_, err := svc.Analyze(context.Background(), Request{ResumeID: "a.pdf"})
	assert.Error(t, err)
}
