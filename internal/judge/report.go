package judge

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/talentlens/internal/fit"
)

type judgment struct {
	ExecutiveSummary string `mapstructure:"executive_summary"`
	FitAnalysis      struct {
		OverallAssessment string `mapstructure:"overall_assessment"`
		FitScore          any    `mapstructure:"fit_score"`
	} `mapstructure:"fit_analysis"`
	KeyStrengths struct {
		Skills              []string `mapstructure:"skills"`
		Experience          []string `mapstructure:"experience"`
		NotableAchievements []string `mapstructure:"notable_achievements"`
	} `mapstructure:"key_strengths"`
	AreasForDevelopment struct {
		SkillsGaps      []string `mapstructure:"skills_gaps"`
		ExperienceGaps  []string `mapstructure:"experience_gaps"`
		Recommendations []string `mapstructure:"recommendations"`
	} `mapstructure:"areas_for_development"`
	ScoreBreakdown struct {
		SkillsMatch     any `mapstructure:"skills_match"`
		ExperienceMatch any `mapstructure:"experience_match"`
	} `mapstructure:"score_breakdown"`
	InterestingFact string `mapstructure:"interesting_fact"`
}

func decodeJudgment(raw RawJudgment) (*judgment, error) {
	var out judgment
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]any(raw)); err != nil {
		return nil, fmt.Errorf("decode judgment: %w", err)
	}
	return &out, nil
}

// ToFitReport maps a judgment onto the common report shape. Score fields are
// read with ParseScore and never fail; sections of the wrong kind do.
func ToFitReport(raw RawJudgment) (fit.Report, error) {
	j, err := decodeJudgment(raw)
	if err != nil {
		return fit.Report{}, err
	}

	overall, _ := ParseScore(j.FitAnalysis.FitScore)
	skills, skillsWhy := ParseScore(j.ScoreBreakdown.SkillsMatch)
	experience, experienceWhy := ParseScore(j.ScoreBreakdown.ExperienceMatch)

	return fit.Report{
		OverallFit:      float64(overall),
		SkillsMatch:     float64(skills),
		ExperienceMatch: float64(experience),
		Recommendations: recommendations(j),
		DetailedAnalysis: map[string]any{
			"strategy":          "llm",
			"executive_summary": nullable(j.ExecutiveSummary),
			"fit_analysis": map[string]any{
				"overall_assessment": nullable(j.FitAnalysis.OverallAssessment),
				"fit_score":          overall,
			},
			"key_strengths": map[string]any{
				"skills":               nonNil(j.KeyStrengths.Skills),
				"experience":           nonNil(j.KeyStrengths.Experience),
				"notable_achievements": nonNil(j.KeyStrengths.NotableAchievements),
			},
			"areas_for_development": map[string]any{
				"skills_gaps":     nonNil(j.AreasForDevelopment.SkillsGaps),
				"experience_gaps": nonNil(j.AreasForDevelopment.ExperienceGaps),
				"recommendations": nonNil(j.AreasForDevelopment.Recommendations),
			},
			"score_breakdown": map[string]any{
				"skills_match":     breakdown(skills, skillsWhy),
				"experience_match": breakdown(experience, experienceWhy),
			},
			"interesting_fact": nullable(j.InterestingFact),
		},
	}, nil
}

func recommendations(j *judgment) []string {
	out := []string{}
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, label+value)
		}
	}

	add("", j.ExecutiveSummary)
	add("Overall Assessment: ", j.FitAnalysis.OverallAssessment)
	add("Key Skills: ", joinNonEmpty(j.KeyStrengths.Skills))
	add("Relevant Experience: ", joinNonEmpty(j.KeyStrengths.Experience))
	add("Notable Achievements: ", joinNonEmpty(j.KeyStrengths.NotableAchievements))
	add("Skills to Develop: ", joinNonEmpty(j.AreasForDevelopment.SkillsGaps))
	add("Experience Gaps: ", joinNonEmpty(j.AreasForDevelopment.ExperienceGaps))
	for _, rec := range j.AreasForDevelopment.Recommendations {
		add("", rec)
	}
	add("Notable: ", j.InterestingFact)

	return out
}

func breakdown(score int, explanation string) string {
	if explanation == "" {
		return fmt.Sprintf("%d%%", score)
	}
	return fmt.Sprintf("%d%% - %s", score, explanation)
}

func nullable(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
