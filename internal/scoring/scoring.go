// Package scoring dispatches a resume and job description pair to one of the
// interchangeable scoring strategies.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/talentlens/internal/documents"
	"github.com/spigell/talentlens/internal/fit"
	"github.com/spigell/talentlens/internal/logger"
)

// Strategy names a scoring method.
type Strategy string

const (
	Heuristic Strategy = "heuristic"
	LLM       Strategy = "llm"
	Mock      Strategy = "mock"
)

var (
	ErrUnknownStrategy  = errors.New("unknown scoring strategy")
	ErrStrategyDisabled = errors.New("scoring strategy is disabled")
)

// ParseStrategy accepts a strategy name in any case.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case Heuristic:
		return Heuristic, nil
	case LLM, "llm_judge", "llmjudge":
		return LLM, nil
	case Mock:
		return Mock, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Scorer produces a fit report. It never returns an error: failures are
// reported through fit.Degraded.
type Scorer interface {
	Name() Strategy
	Disable(reason string)
	IsEnabled() bool

	Score(ctx context.Context, resume *documents.Resume, job *documents.JobDescription) fit.Report
}

// Status represents runtime information about a strategy.
type Status struct {
	Name    string            `json:"name" yaml:"name"`
	Enabled bool              `json:"enabled" yaml:"enabled"`
	Default bool              `json:"default,omitempty" yaml:"default,omitempty"`
	Reason  string            `json:"reason,omitempty" yaml:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
}

// statusProvider is implemented by strategies that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Reconciler combines the reports of the requested and the secondary
// strategy into one. No policy is built in.
type Reconciler func(primary, secondary fit.Report) fit.Report

// Options selects strategies.
type Options struct {
	Default Strategy
	// Fallback is used when the requested strategy returns a degraded report,
	// or as the secondary input of Reconciler.
	Fallback   Strategy
	Reconciler Reconciler
}

// FitScorer is safe for concurrent use once built.
type FitScorer struct {
	byName    map[Strategy]Scorer
	order     []Scorer
	def       Strategy
	fallback  Strategy
	reconcile Reconciler
	logger    *zap.Logger
}

func New(log *zap.Logger, opts Options, scorers ...Scorer) (*FitScorer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f := &FitScorer{
		byName:    make(map[Strategy]Scorer, len(scorers)),
		def:       opts.Default,
		fallback:  opts.Fallback,
		reconcile: opts.Reconciler,
		logger:    log,
	}
	for _, s := range scorers {
		if _, dup := f.byName[s.Name()]; dup {
			return nil, fmt.Errorf("strategy %s registered twice", s.Name())
		}
		f.byName[s.Name()] = s
		f.order = append(f.order, s)
	}

	if f.def == "" && len(f.order) > 0 {
		f.def = f.order[0].Name()
	}
	if _, ok := f.byName[f.def]; !ok {
		return nil, fmt.Errorf("default %w: %q", ErrUnknownStrategy, f.def)
	}
	if f.fallback != "" {
		if _, ok := f.byName[f.fallback]; !ok {
			return nil, fmt.Errorf("fallback %w: %q", ErrUnknownStrategy, f.fallback)
		}
	}
	return f, nil
}

// Default returns the strategy used when a caller does not name one.
func (f *FitScorer) Default() Strategy { return f.def }

// DisableByName marks a strategy as disabled while keeping it in the list.
func (f *FitScorer) DisableByName(name Strategy, reason string) {
	if s, ok := f.byName[name]; ok {
		s.Disable(reason)
	}
}

// Score runs the named strategy, or the default one for an empty name.
// Only an unknown or disabled strategy is an error.
func (f *FitScorer) Score(ctx context.Context, resume *documents.Resume, job *documents.JobDescription, strategy Strategy) (fit.Report, error) {
	if strategy == "" {
		strategy = f.def
	}
	primary, ok := f.byName[strategy]
	if !ok {
		return fit.Report{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	if !primary.IsEnabled() {
		return fit.Report{}, fmt.Errorf("%w: %s", ErrStrategyDisabled, strategy)
	}

	log := logger.WithFields(f.logger, zap.String(logger.FieldStrategy, string(strategy)))
	secondary := f.secondary(strategy)

	if f.reconcile != nil && secondary != nil {
		return f.scoreBoth(ctx, log, primary, secondary, resume, job), nil
	}

	report := primary.Score(ctx, resume, job)
	if !report.IsDegraded() || secondary == nil {
		log.Info("fit scored", zap.Float64("overall_fit", report.OverallFit), zap.Bool("degraded", report.IsDegraded()))
		return report, nil
	}

	log.Warn("strategy returned a degraded report, using fallback",
		zap.String("fallback", string(secondary.Name())),
		zap.Any("error", report.DetailedAnalysis["error"]),
	)
	fallback := secondary.Score(ctx, resume, job)
	fallback.DetailedAnalysis = annotate(fallback.DetailedAnalysis, map[string]any{
		"fallback_from": string(strategy),
		"primary_error": report.DetailedAnalysis["error"],
	})
	log.Info("fit scored", zap.String("fallback", string(secondary.Name())), zap.Float64("overall_fit", fallback.OverallFit))
	return fallback, nil
}

func (f *FitScorer) secondary(strategy Strategy) Scorer {
	if f.fallback == "" || f.fallback == strategy {
		return nil
	}
	s := f.byName[f.fallback]
	if s == nil || !s.IsEnabled() {
		return nil
	}
	return s
}

func (f *FitScorer) scoreBoth(ctx context.Context, log *zap.Logger, primary, secondary Scorer, resume *documents.Resume, job *documents.JobDescription) fit.Report {
	var first, second fit.Report

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		first = primary.Score(gctx, resume, job)
		return nil
	})
	g.Go(func() error {
		second = secondary.Score(gctx, resume, job)
		return nil
	})
	_ = g.Wait()

	report := f.reconcile(first, second)
	log.Info("fit scored with reconciliation",
		zap.String("secondary", string(secondary.Name())),
		zap.Float64("overall_fit", report.OverallFit),
	)
	return report
}

// Describe returns status entries for the registered strategies in
// registration order.
func (f *FitScorer) Describe() []Status {
	statuses := make([]Status, 0, len(f.order))
	for _, s := range f.order {
		var st Status
		if reporter, ok := s.(statusProvider); ok {
			st = reporter.Status()
		} else {
			st = Status{Name: string(s.Name()), Enabled: s.IsEnabled()}
		}
		st.Default = s.Name() == f.def
		statuses = append(statuses, st)
	}
	return statuses
}

func annotate(detail map[string]any, extra map[string]any) map[string]any {
	out := make(map[string]any, len(detail)+len(extra))
	maps.Copy(out, detail)
	maps.Copy(out, extra)
	return out
}
