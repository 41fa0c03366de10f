// Package documents holds the structured resume and job description records
// produced by the normalizer and consumed by the scorers.
package documents

import (
	"fmt"
	"strings"
)

// Kind tells which schema a document follows.
type Kind string

const (
	KindResume         Kind = "resume"
	KindJobDescription Kind = "job_description"
)

// ParseKind accepts the canonical kind names plus a few spellings used by clients.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resume", "cv":
		return KindResume, nil
	case "job_description", "job-description", "job", "vacancy":
		return KindJobDescription, nil
	default:
		return "", fmt.Errorf("unknown document kind %q", s)
	}
}

// PresentEnd marks an ongoing position in WorkDates.End.
const PresentEnd = "Present"

type Resume struct {
	Contact        Contact          `json:"contact_info"`
	Summary        *string          `json:"summary"`
	WorkExperience []WorkExperience `json:"work_experience"`
	Education      []Education      `json:"education"`
	Skills         []string         `json:"skills"`
	AdditionalInfo *AdditionalInfo  `json:"additional_info"`
}

type Contact struct {
	Name     string  `json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	LinkedIn *string `json:"linkedin"`
	Address  *string `json:"address"`
}

type WorkExperience struct {
	JobTitle         string    `json:"job_title"`
	Company          string    `json:"company"`
	Dates            WorkDates `json:"dates"`
	Responsibilities []string  `json:"responsibilities"`
	// DurationYears is never produced by the parsing prompt. Only callers that
	// supply structured input directly can set it.
	DurationYears *float64 `json:"duration_years,omitempty"`
}

type WorkDates struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Education struct {
	Degree         *string `json:"degree"`
	Major          string  `json:"major"`
	Institution    string  `json:"institution"`
	GraduationDate string  `json:"graduation_date"`
}

type AdditionalInfo struct {
	Projects     []string `json:"projects"`
	Awards       []string `json:"awards"`
	Publications []string `json:"publications"`
	Volunteer    []string `json:"volunteer"`
}

type JobDescription struct {
	JobTitle           string   `json:"job_title"`
	Company            *string  `json:"company"`
	Location           *string  `json:"location"`
	EmploymentType     *string  `json:"employment_type"`
	Responsibilities   []string `json:"responsibilities"`
	Qualifications     []string `json:"qualifications"`
	Skills             []string `json:"skills"`
	Benefits           []string `json:"benefits"`
	ApplicationProcess *string  `json:"application_process"`
}

// Structured is a normalized document together with the text it was built from.
type Structured struct {
	Kind     Kind
	Filename string
	Markdown string
	// Raw is the model answer the record was decoded from.
	Raw    string
	Resume *Resume
	Job    *JobDescription
}

// Data returns the structured record for the document kind.
func (s *Structured) Data() any {
	if s == nil {
		return nil
	}
	if s.Kind == KindResume {
		return s.Resume
	}
	return s.Job
}

// DedupSkills drops repeated skills ignoring case and surrounding spaces.
// The first spelling wins and order is kept.
func DedupSkills(skills []string) []string {
	if skills == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		trimmed := strings.TrimSpace(skill)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
