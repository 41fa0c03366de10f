package scoring

import (
	"context"
	"fmt"

	"github.com/spigell/talentlens/internal/documents"
	"github.com/spigell/talentlens/internal/fit"
	"github.com/spigell/talentlens/internal/heuristic"
)

// switchable carries the enable/disable state shared by all strategies.
// Disable is meant to be called while wiring, before any Score call.
type switchable struct {
	disabled bool
	reason   string
}

func (s *switchable) Disable(reason string) {
	s.disabled = true
	s.reason = reason
}

func (s *switchable) IsEnabled() bool { return !s.disabled }

type heuristicScorer struct {
	switchable
}

// NewHeuristic scores with string similarity only. It makes no network calls.
func NewHeuristic() Scorer {
	return &heuristicScorer{}
}

func (s *heuristicScorer) Name() Strategy { return Heuristic }

func (s *heuristicScorer) Score(_ context.Context, resume *documents.Resume, job *documents.JobDescription) fit.Report {
	return heuristic.Match(resume, job)
}

func (s *heuristicScorer) Status() Status {
	return Status{
		Name:    string(Heuristic),
		Enabled: s.IsEnabled(),
		Reason:  s.reason,
		Details: map[string]string{
			"match_threshold": fmt.Sprintf("%.2f", heuristic.MatchThreshold),
			"weights":         "skills=0.4,experience=0.4,education=0.2",
		},
	}
}

// Evaluator is the LLM judge as seen by the scorer.
type Evaluator interface {
	Evaluate(ctx context.Context, resume *documents.Resume, job *documents.JobDescription) fit.Report
	Model() string
}

type llmScorer struct {
	switchable
	judge Evaluator
}

// NewLLM scores with a language model judge. A nil judge registers the
// strategy disabled.
func NewLLM(judge Evaluator) Scorer {
	s := &llmScorer{judge: judge}
	if judge == nil {
		s.Disable("no completion client configured")
	}
	return s
}

func (s *llmScorer) Name() Strategy { return LLM }

func (s *llmScorer) Score(ctx context.Context, resume *documents.Resume, job *documents.JobDescription) fit.Report {
	if s.judge == nil {
		return fit.Degraded(fmt.Errorf("%w: %s", ErrStrategyDisabled, LLM))
	}
	return s.judge.Evaluate(ctx, resume, job)
}

func (s *llmScorer) Status() Status {
	details := map[string]string{}
	if s.judge != nil {
		details["model"] = s.judge.Model()
	}
	return Status{Name: string(LLM), Enabled: s.IsEnabled(), Reason: s.reason, Details: details}
}

type mockScorer struct {
	switchable
}

// NewMock always returns the canned demo report.
func NewMock() Scorer {
	return &mockScorer{}
}

func (s *mockScorer) Name() Strategy { return Mock }

func (s *mockScorer) Score(context.Context, *documents.Resume, *documents.JobDescription) fit.Report {
	return fit.Mock()
}
