package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spigell/talentlens/internal/documents"
	"github.com/spigell/talentlens/internal/fit"
	"github.com/spigell/talentlens/internal/judge"
	"github.com/spigell/talentlens/internal/mocks"
)

func ptr[T any](v T) *T { return &v }

func sampleResume() *documents.Resume {
	return &documents.Resume{
		Contact: documents.Contact{Name: "Jane Doe"},
		WorkExperience: []documents.WorkExperience{{
			JobTitle:         "Engineer",
			Company:          "Acme",
			Responsibilities: []string{"Build data pipelines"},
			DurationYears:    ptr(4.0),
		}},
		Education: []documents.Education{{Major: "computer science and engineering"}},
		Skills:    []string{"Python", "SQL"},
	}
}

func sampleJob() *documents.JobDescription {
	return &documents.JobDescription{
		JobTitle:         "Data Engineer",
		Responsibilities: []string{"Build data pipelines"},
		Qualifications:   []string{"Computer Science"},
		Skills:           []string{"python", "sql", "docker"},
	}
}

func newScorer(t *testing.T, opts Options, judge Evaluator) *FitScorer {
	t.Helper()
	f, err := New(nil, opts, NewHeuristic(), NewLLM(judge), NewMock())
	require.NoError(t, err)
	return f
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"heuristic": Heuristic, " LLM ": LLM, "mock": Mock, "llm_judge": LLM} {
		got, err := ParseStrategy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseStrategy("average")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestScoreDispatches(t *testing.T) {
	judgeMock := new(mocks.MockEvaluator)
	llmReport := fit.Report{OverallFit: 77, Recommendations: []string{"llm"}}
	judgeMock.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(llmReport)

	f := newScorer(t, Options{Default: LLM}, judgeMock)
	ctx := context.Background()

	got, err := f.Score(ctx, sampleResume(), sampleJob(), "")
	require.NoError(t, err)
	assert.Equal(t, llmReport, got)

	got, err = f.Score(ctx, sampleResume(), sampleJob(), Mock)
	require.NoError(t, err)
	assert.Equal(t, fit.Mock(), got)

	got, err = f.Score(ctx, sampleResume(), sampleJob(), Heuristic)
	require.NoError(t, err)
	assert.InDelta(t, 66.7, got.SkillsMatch, 0.05)
	assert.Equal(t, "heuristic", got.DetailedAnalysis["strategy"])

	judgeMock.AssertNumberOfCalls(t, "Evaluate", 1)
}

func TestScoreUnknownAndDisabled(t *testing.T) {
	f := newScorer(t, Options{Default: Heuristic}, nil)

	_, err := f.Score(context.Background(), sampleResume(), sampleJob(), "blend")
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	_, err = f.Score(context.Background(), sampleResume(), sampleJob(), LLM)
	assert.ErrorIs(t, err, ErrStrategyDisabled)

	f.DisableByName(Mock, "demo mode off")
	_, err = f.Score(context.Background(), sampleResume(), sampleJob(), Mock)
	assert.ErrorIs(t, err, ErrStrategyDisabled)
}

func TestScoreLLMNetworkFailureIsDegraded(t *testing.T) {
	completer := new(mocks.MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything).
		Return("", &net.OpError{Op: "dial", Err: errors.New("connection refused")})

	f := newScorer(t, Options{Default: LLM}, judge.New(completer, nil, judge.Options{}))

	report, err := f.Score(context.Background(), sampleResume(), sampleJob(), LLM)
	require.NoError(t, err)
	assert.Zero(t, report.OverallFit)
	assert.Zero(t, report.SkillsMatch)
	assert.Zero(t, report.ExperienceMatch)
	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations, fit.FailureRecommendation)
	assert.True(t, report.IsDegraded())
}

func TestScoreFallsBackOnDegradedReport(t *testing.T) {
	judgeMock := new(mocks.MockEvaluator)
	judgeMock.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
		Return(fit.Degraded(errors.New("quota exceeded")))

	f := newScorer(t, Options{Default: LLM, Fallback: Heuristic}, judgeMock)

	report, err := f.Score(context.Background(), sampleResume(), sampleJob(), "")
	require.NoError(t, err)
	assert.False(t, report.IsDegraded())
	assert.Equal(t, "heuristic", report.DetailedAnalysis["strategy"])
	assert.Equal(t, "llm", report.DetailedAnalysis["fallback_from"])
	assert.Equal(t, "quota exceeded", report.DetailedAnalysis["primary_error"])
}

func TestScoreDoesNotFallBackOnHealthyReport(t *testing.T) {
	judgeMock := new(mocks.MockEvaluator)
	judgeMock.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(fit.Report{OverallFit: 90})

	f := newScorer(t, Options{Default: LLM, Fallback: Heuristic}, judgeMock)

	report, err := f.Score(context.Background(), sampleResume(), sampleJob(), LLM)
	require.NoError(t, err)
	assert.Equal(t, 90.0, report.OverallFit)
}

func TestScoreReconciler(t *testing.T) {
	judgeMock := new(mocks.MockEvaluator)
	judgeMock.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(fit.Report{OverallFit: 90})

	var seen []float64
	reconcile := func(primary, secondary fit.Report) fit.Report {
		seen = []float64{primary.OverallFit, secondary.OverallFit}
		return fit.Report{OverallFit: 42}
	}

	f := newScorer(t, Options{Default: LLM, Fallback: Mock, Reconciler: reconcile}, judgeMock)

	report, err := f.Score(context.Background(), sampleResume(), sampleJob(), LLM)
	require.NoError(t, err)
	assert.Equal(t, 42.0, report.OverallFit)
	assert.Equal(t, []float64{90, 85.5}, seen)
}

func TestHeuristicScoreIsIdempotent(t *testing.T) {
	f := newScorer(t, Options{Default: Heuristic}, nil)

	first, err := f.Score(context.Background(), sampleResume(), sampleJob(), Heuristic)
	require.NoError(t, err)
	second, err := f.Score(context.Background(), sampleResume(), sampleJob(), Heuristic)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestNewValidatesStrategies(t *testing.T) {
	_, err := New(nil, Options{Default: LLM}, NewHeuristic())
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	_, err = New(nil, Options{Default: Heuristic, Fallback: Mock}, NewHeuristic())
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	_, err = New(nil, Options{}, NewHeuristic(), NewHeuristic())
	assert.Error(t, err)

	f, err := New(nil, Options{}, NewMock(), NewHeuristic())
	require.NoError(t, err)
	assert.Equal(t, Mock, f.Default())
}

func TestDescribe(t *testing.T) {
	f := newScorer(t, Options{Default: Heuristic}, nil)

	statuses := f.Describe()
	require.Len(t, statuses, 3)

	assert.Equal(t, "heuristic", statuses[0].Name)
	assert.True(t, statuses[0].Enabled)
	assert.True(t, statuses[0].Default)
	assert.Equal(t, "0.80", statuses[0].Details["match_threshold"])

	assert.Equal(t, "llm", statuses[1].Name)
	assert.False(t, statuses[1].Enabled)
	assert.NotEmpty(t, statuses[1].Reason)

	assert.Equal(t, "mock", statuses[2].Name)
	assert.True(t, statuses[2].Enabled)
	assert.False(t, statuses[2].Default)
}
