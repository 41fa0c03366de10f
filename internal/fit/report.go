// Package fit defines the report every scoring strategy produces.
package fit

// Report is the normalized scoring output. Scores are in [0, 100].
type Report struct {
	OverallFit      float64 `json:"overallFit" yaml:"overallFit"`
	SkillsMatch     float64 `json:"skillsMatch" yaml:"skillsMatch"`
	ExperienceMatch float64 `json:"experienceMatch" yaml:"experienceMatch"`
	// EducationMatch is only computed by strategies that look at education.
	EducationMatch   *float64       `json:"educationMatch,omitempty" yaml:"educationMatch,omitempty"`
	Recommendations  []string       `json:"recommendations" yaml:"recommendations"`
	DetailedAnalysis map[string]any `json:"detailed_analysis" yaml:"detailed_analysis"`
}

const (
	// FailureRecommendation is the only recommendation of a degraded report.
	FailureRecommendation = "Error analyzing resume. Please try again."

	detailError = "error"
)

// Degraded builds the all-zero report returned when a strategy could not
// produce a real assessment.
func Degraded(err error) Report {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Report{
		Recommendations: []string{FailureRecommendation},
		DetailedAnalysis: map[string]any{
			detailError:         msg,
			"executive_summary": "Error analyzing resume",
			"fit_analysis": map[string]any{
				"overall_assessment": "Analysis failed",
				"fit_score":          0,
			},
		},
	}
}

// IsDegraded reports whether r was produced by Degraded.
func (r Report) IsDegraded() bool {
	if r.DetailedAnalysis == nil {
		return false
	}
	_, ok := r.DetailedAnalysis[detailError]
	return ok
}

// Mock returns the canned report used for demos and offline runs.
func Mock() Report {
	education := 90.0
	return Report{
		OverallFit:      85.5,
		SkillsMatch:     80,
		ExperienceMatch: 85,
		EducationMatch:  &education,
		Recommendations: []string{
			"Consider highlighting your project management experience",
			"Add more details about your technical skills",
			"Include certifications if available",
		},
		DetailedAnalysis: map[string]any{
			"strategy": "mock",
		},
	}
}
