package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/spigell/talentlens/internal/documents"
	"github.com/spigell/talentlens/internal/fit"
	"github.com/spigell/talentlens/internal/normalizer"
	"github.com/spigell/talentlens/internal/scoring"
)

const (
	PromptPrintJSON = "Print JSON"
	PromptPrintYAML = "Print YAML"
	PromptSave      = "Save to file"
	PromptRescore   = "Rescore with another strategy"
	PromptExit      = "Exit"
	PromptBack      = "back"

	outputJSON = "json"
	outputYAML = "yaml"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptPrintJSON, PromptPrintYAML, PromptSave, PromptRescore, PromptExit},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a resume against a job description",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("resume", "r", "", "resume file (pdf, doc, docx, txt)")
	scoreCmd.Flags().String("job", "", "job description file (pdf, doc, docx, txt)")
	scoreCmd.Flags().StringP("strategy", "s", "", "scoring strategy: heuristic, llm or mock (default from config)")
	scoreCmd.Flags().Bool("structured", false, "inputs are already structured JSON documents")
	scoreCmd.Flags().StringP("output", "o", outputJSON, "output format: json or yaml")
	scoreCmd.Flags().BoolP("interactive", "i", false, "open a menu after scoring")

	_ = scoreCmd.MarkFlagRequired("resume")
	_ = scoreCmd.MarkFlagRequired("job")
}

func score(cmd *cobra.Command) error {
	ctx := context.Background()
	logger := newLogger()

	config, err := getConfig(viper.GetViper())
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	resumePath, _ := cmd.Flags().GetString("resume")
	jobPath, _ := cmd.Flags().GetString("job")
	structured, _ := cmd.Flags().GetBool("structured")
	output, _ := cmd.Flags().GetString("output")
	interactive, _ := cmd.Flags().GetBool("interactive")
	strategyFlag, _ := cmd.Flags().GetString("strategy")

	if output != outputJSON && output != outputYAML {
		return fmt.Errorf("unsupported output format %q", output)
	}

	var strategy scoring.Strategy
	if strategyFlag != "" {
		if strategy, err = scoring.ParseStrategy(strategyFlag); err != nil {
			return err
		}
	}

	c, err := buildComponents(ctx, config, logger)
	if err != nil {
		logger.Fatal("building components", zap.Error(err))
	}

	resume, job, err := loadPair(ctx, c.normalizer, resumePath, jobPath, structured)
	if err != nil {
		return err
	}

	report, err := c.scorer.Score(ctx, resume.Resume, job.Job, strategy)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := render(out, report, output); err != nil {
		return err
	}
	if !interactive {
		return nil
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		report, err = handleAction(ctx, out, action, c.scorer, resume, job, report)
		if err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			logger.Error("action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, out io.Writer, action string, scorer *scoring.FitScorer, resume, job *documents.Structured, report fit.Report) (fit.Report, error) {
	switch action {
	case PromptPrintJSON:
		return report, render(out, report, outputJSON)
	case PromptPrintYAML:
		return report, render(out, report, outputYAML)
	case PromptSave:
		filename, err := (&promptui.Prompt{Label: "File name", Default: "fit-report.json"}).Run()
		if err != nil {
			return report, err
		}
		return report, saveReport(filename, report)
	case PromptRescore:
		strategy, err := chooseStrategy(scorer)
		if err != nil || strategy == "" {
			return report, err
		}
		next, err := scorer.Score(ctx, resume.Resume, job.Job, strategy)
		if err != nil {
			return report, err
		}
		return next, render(out, next, outputJSON)
	case PromptExit:
		return report, errExit
	default:
		return report, fmt.Errorf("invalid action: %s", action)
	}
}

func chooseStrategy(scorer *scoring.FitScorer) (scoring.Strategy, error) {
	items := make([]string, 0)
	for _, st := range scorer.Describe() {
		if st.Enabled {
			items = append(items, st.Name)
		}
	}

	strategyPrompt := promptui.Select{
		Label: "Choose a strategy and press ENTER",
		Items: append(items, PromptBack),
	}
	_, selected, err := strategyPrompt.Run()
	if err != nil || selected == PromptBack {
		return "", err
	}
	return scoring.Strategy(selected), nil
}

// loadPair reads both inputs concurrently.
func loadPair(ctx context.Context, norm *normalizer.Normalizer, resumePath, jobPath string, structured bool) (*documents.Structured, *documents.Structured, error) {
	var resume, job *documents.Structured

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := loadDocument(gctx, norm, resumePath, documents.KindResume, structured)
		resume = doc
		return err
	})
	g.Go(func() error {
		doc, err := loadDocument(gctx, norm, jobPath, documents.KindJobDescription, structured)
		job = doc
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return resume, job, nil
}

func loadDocument(ctx context.Context, norm *normalizer.Normalizer, path string, kind documents.Kind, structured bool) (*documents.Structured, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", kind, err)
	}

	filename := filepath.Base(path)
	if structured {
		return norm.FromJSON(kind, filename, data)
	}
	return norm.Normalize(ctx, filename, data, kind)
}

func render(out io.Writer, report fit.Report, format string) error {
	switch format {
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
}

func saveReport(filename string, report fit.Report) error {
	format := outputJSON
	if ext := strings.ToLower(filepath.Ext(filename)); ext == ".yaml" || ext == ".yml" {
		format = outputYAML
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filename, err)
	}
	if err := render(f, report, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
