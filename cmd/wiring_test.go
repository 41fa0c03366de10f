package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/talentlens/internal/ai"
	"github.com/spigell/talentlens/internal/documents"
	"github.com/spigell/talentlens/internal/mocks"
	"github.com/spigell/talentlens/internal/scoring"
	"github.com/spigell/talentlens/internal/storage"
)

func statusByName(statuses []scoring.Status) map[string]scoring.Status {
	out := make(map[string]scoring.Status, len(statuses))
	for _, st := range statuses {
		out[st.Name] = st
	}
	return out
}

func TestNewScorerWithoutCompleter(t *testing.T) {
	scorer, err := newScorer(ScoringConfig{Strategy: "llm"}, nil, 200, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, scoring.Heuristic, scorer.Default())
	statuses := statusByName(scorer.Describe())
	assert.False(t, statuses["llm"].Enabled)
	assert.True(t, statuses["heuristic"].Default)
	assert.True(t, statuses["mock"].Enabled)
}

func TestNewScorerWithCompleter(t *testing.T) {
	scorer, err := newScorer(ScoringConfig{Strategy: "llm", Fallback: "heuristic"}, new(mocks.MockCompleter), 200, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, scoring.LLM, scorer.Default())
	statuses := statusByName(scorer.Describe())
	assert.True(t, statuses["llm"].Enabled)
	assert.Equal(t, "mock/mock-model", statuses["llm"].Details["model"])
}

func TestNewScorerKeepsZeroJudgeTemperature(t *testing.T) {
	completer := new(mocks.MockCompleter)
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(req ai.CompletionRequest) bool {
		return req.Temperature == 0
	})).Return(`{"fit_analysis": {"overall_assessment": "ok", "fit_score": 64}}`, nil).Once()

	scorer, err := newScorer(ScoringConfig{Strategy: "llm", Judge: JudgeConfig{Temperature: 0}}, completer, 200, zap.NewNop())
	require.NoError(t, err)

	report, err := scorer.Score(context.Background(), &documents.Resume{}, &documents.JobDescription{}, scoring.LLM)
	require.NoError(t, err)
	assert.False(t, report.IsDegraded())
	completer.AssertExpectations(t)
}

func TestNewScorerRejectsUnknownStrategy(t *testing.T) {
	_, err := newScorer(ScoringConfig{Strategy: "blend"}, nil, 200, zap.NewNop())
	assert.ErrorIs(t, err, scoring.ErrUnknownStrategy)
}

func TestNewCompleterRequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := newCompleter(context.Background(), AIConfig{Provider: "gemini"}, zap.NewNop())
	assert.ErrorIs(t, err, errNoCredentials)

	_, err = newCompleter(context.Background(), AIConfig{Provider: "claude"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewCompleterUnreadableKeyFile(t *testing.T) {
	_, err := newCompleter(context.Background(), AIConfig{
		Provider: "openai",
		OpenAI:   ProviderConfig{APIKeyFile: filepath.Join(t.TempDir(), "missing"), Model: "gpt-4o-mini"},
	}, zap.NewNop())
	require.Error(t, err)
	assert.NotErrorIs(t, err, errNoCredentials)
}

func TestNewCompleterOpenAIFromKeyFile(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(keyFile, []byte("sk-test\n"), 0o600))

	completer, err := newCompleter(context.Background(), AIConfig{
		Provider: "openai",
		OpenAI:   ProviderConfig{APIKeyFile: keyFile, Model: "gpt-4o-mini"},
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "openai", completer.Provider())
	assert.Equal(t, "gpt-4o-mini", completer.Model())
}

func TestNewParserPlainText(t *testing.T) {
	p, err := newParser(ParserConfig{Provider: "text"}, zap.NewNop())
	require.NoError(t, err)

	sections, err := p.Parse(context.Background(), "job.txt", []byte("Data Engineer"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Data Engineer"}, sections)
}

func TestNewParserWithoutLlamaParseKey(t *testing.T) {
	p, err := newParser(ParserConfig{Provider: "llamaparse"}, zap.NewNop())
	require.NoError(t, err)

	sections, err := p.Parse(context.Background(), "job.txt", []byte("text"))
	require.NoError(t, err)
	assert.Equal(t, []string{"text"}, sections)

	_, err = p.Parse(context.Background(), "cv.pdf", []byte("%PDF"))
	assert.Error(t, err)
}

func TestNewParserUnreadableKeyFile(t *testing.T) {
	_, err := newParser(ParserConfig{
		Provider:   "llamaparse",
		LlamaParse: LlamaParseConfig{APIKeyFile: filepath.Join(t.TempDir(), "missing")},
	}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewStoreMemory(t *testing.T) {
	store, err := newStore(context.Background(), StorageConfig{Backend: "memory"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &storage.Memory{}, store)

	_, err = newStore(context.Background(), StorageConfig{Backend: "disk"}, zap.NewNop())
	assert.Error(t, err)
}
