package heuristic

import (
	"strings"

	"github.com/spigell/talentlens/internal/documents"
	"github.com/spigell/talentlens/internal/fit"
)

// Match runs every sub-score and assembles a report.
func Match(resume *documents.Resume, job *documents.JobDescription) fit.Report {
	var resumeSkills, requiredSkills []string
	if resume != nil {
		resumeSkills = resume.Skills
	}
	if job != nil {
		requiredSkills = job.Skills
	}

	skills, missing := SkillsMatch(resumeSkills, requiredSkills)
	experience, expDetails := ExperienceMatch(resume, job)
	education, eduRecommendations := EducationMatch(resume, job)

	recommendations := []string{}
	if len(missing) > 0 {
		recommendations = append(recommendations, "Consider developing skills in: "+strings.Join(missing, ", "))
	}
	recommendations = append(recommendations, expDetails.Gaps...)
	recommendations = append(recommendations, eduRecommendations...)

	educationScore := round1(education)

	return fit.Report{
		OverallFit:      OverallMatch(skills, experience, education),
		SkillsMatch:     round1(skills),
		ExperienceMatch: round1(experience),
		EducationMatch:  &educationScore,
		Recommendations: recommendations,
		DetailedAnalysis: map[string]any{
			"strategy":                 "heuristic",
			"missing_skills":           missing,
			"experience_gaps":          expDetails.Gaps,
			"required_years":           expDetails.RequiredYears,
			"candidate_years":          expDetails.CandidateYears,
			"responsibility_relevance": round1(expDetails.Relevance * 100),
		},
	}
}
