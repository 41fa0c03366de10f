// Package heuristic scores a resume against a job description locally with
// fuzzy string matching. Everything here is pure and deterministic.
package heuristic

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/talentlens/internal/documents"
)

const (
	// MatchThreshold is the minimum Ratio for a required skill to count as present.
	MatchThreshold = 0.8

	skillsWeight     = 0.4
	experienceWeight = 0.4
	educationWeight  = 0.2

	yearsWeight     = 0.6
	relevanceWeight = 0.4
)

// yearsRe covers "N years", "N+ years" and "minimum of N years" in one
// expression so the leftmost figure in the text wins.
var yearsRe = regexp.MustCompile(`(?i)(?:minimum\s+of\s+)?(\d+(?:\.\d+)?)\s*(?:\+\s*|\s)years?\b`)

// SkillsMatch returns the share of required skills present in the resume and
// the required skills that were not found, in input order and original case.
func SkillsMatch(resumeSkills, requiredSkills []string) (float64, []string) {
	missing := []string{}
	if len(requiredSkills) == 0 {
		return 100, missing
	}

	matched := 0
	for _, required := range requiredSkills {
		if bestRatio(required, resumeSkills) >= MatchThreshold {
			matched++
			continue
		}
		missing = append(missing, required)
	}

	return 100 * float64(matched) / float64(len(requiredSkills)), missing
}

// RequiredYears pulls the first years-of-experience figure out of text,
// reading left to right. 0 means no requirement was found.
func RequiredYears(text string) float64 {
	m := yearsRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	years, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return years
}

// CandidateYears sums explicit duration fields. Dates are not used.
func CandidateYears(resume *documents.Resume) float64 {
	if resume == nil {
		return 0
	}
	total := 0.0
	for _, exp := range resume.WorkExperience {
		if exp.DurationYears != nil {
			total += *exp.DurationYears
		}
	}
	return total
}

// Relevance averages, over job responsibilities, the best Ratio against any
// responsibility line from the resume work history.
func Relevance(resume *documents.Resume, job *documents.JobDescription) float64 {
	if job == nil || len(job.Responsibilities) == 0 {
		return 0
	}

	var lines []string
	if resume != nil {
		for _, exp := range resume.WorkExperience {
			lines = append(lines, exp.Responsibilities...)
		}
	}

	sum := 0.0
	for _, responsibility := range job.Responsibilities {
		sum += bestRatio(responsibility, lines)
	}
	return sum / float64(len(job.Responsibilities))
}

// ExperienceDetails carries the intermediate values of ExperienceMatch.
type ExperienceDetails struct {
	RequiredYears  float64
	CandidateYears float64
	Relevance      float64
	Gaps           []string
}

// ExperienceMatch blends years coverage with responsibility relevance.
func ExperienceMatch(resume *documents.Resume, job *documents.JobDescription) (float64, ExperienceDetails) {
	details := ExperienceDetails{
		RequiredYears:  RequiredYears(requirementsText(job)),
		CandidateYears: CandidateYears(resume),
		Relevance:      Relevance(resume, job),
		Gaps:           []string{},
	}

	base := 100.0
	if details.RequiredYears > 0 {
		base = math.Min(100, 100*details.CandidateYears/math.Max(1, details.RequiredYears))
	}

	if details.RequiredYears > details.CandidateYears {
		details.Gaps = append(details.Gaps, fmt.Sprintf(
			"Requires %.1f more years of experience (%.1f required, %.1f found)",
			details.RequiredYears-details.CandidateYears, details.RequiredYears, details.CandidateYears,
		))
	}

	return yearsWeight*base + relevanceWeight*details.Relevance*100, details
}

func requirementsText(job *documents.JobDescription) string {
	if job == nil {
		return ""
	}
	parts := make([]string, 0, len(job.Qualifications)+len(job.Responsibilities))
	parts = append(parts, job.Qualifications...)
	parts = append(parts, job.Responsibilities...)
	return strings.Join(parts, "\n")
}

// EducationMatch counts job qualifications contained in any degree or major
// of the resume. Each unmatched qualification yields a recommendation.
func EducationMatch(resume *documents.Resume, job *documents.JobDescription) (float64, []string) {
	recommendations := []string{}
	if job == nil || len(job.Qualifications) == 0 {
		return 100, recommendations
	}

	var fields []string
	if resume != nil {
		for _, edu := range resume.Education {
			if edu.Degree != nil {
				fields = append(fields, strings.ToLower(*edu.Degree))
			}
			fields = append(fields, strings.ToLower(edu.Major))
		}
	}

	matched := 0
	for _, qualification := range job.Qualifications {
		needle := strings.ToLower(strings.TrimSpace(qualification))
		if needle != "" && containsAny(fields, needle) {
			matched++
			continue
		}
		recommendations = append(recommendations, "Consider addressing the qualification: "+qualification)
	}

	return 100 * float64(matched) / float64(len(job.Qualifications)), recommendations
}

func containsAny(haystacks []string, needle string) bool {
	for _, h := range haystacks {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}

// OverallMatch weights the three sub-scores and rounds to one decimal.
// NaN inputs count as 0.
func OverallMatch(skills, experience, education float64) float64 {
	return round1(skillsWeight*zeroNaN(skills) + experienceWeight*zeroNaN(experience) + educationWeight*zeroNaN(education))
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
