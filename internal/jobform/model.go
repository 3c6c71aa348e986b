// Package jobform implements the multi-step job posting form: the posting model,
// per-step validation, the step controller and the sub-collection reconciler.
package jobform

import "strings"

// EmploymentType constants
const (
	EmploymentFullTime   = "full_time"
	EmploymentPartTime   = "part_time"
	EmploymentContract   = "contract"
	EmploymentInternship = "internship"
	EmploymentTemporary  = "temporary"
	EmploymentFreelance  = "freelance"
)

// ExperienceLevel constants
const (
	ExperienceEntry     = "entry"
	ExperienceJunior    = "junior"
	ExperienceMid       = "mid"
	ExperienceSenior    = "senior"
	ExperienceLead      = "lead"
	ExperienceExecutive = "executive"
)

// LocationType constants
const (
	LocationOnsite = "onsite"
	LocationRemote = "remote"
	LocationHybrid = "hybrid"
)

// CareerStage constants
const (
	CareerStudent  = "student"
	CareerGraduate = "graduate"
	CareerEarly    = "early_career"
	CareerMid      = "mid_career"
	CareerSenior   = "senior_career"
)

// DescriptionMaxLength is the maximum visible text length of a description.
const DescriptionMaxLength = 5000

// JobPosting is the aggregate collected across the form steps.
// JSON names match the external job posting API.
type JobPosting struct {
	JobTitle        string  `json:"jobTitle" validate:"required,max=120"`
	Department      string  `json:"department,omitempty" validate:"omitempty,max=80"`
	Country         string  `json:"country" validate:"required"`
	Region          string  `json:"region" validate:"required"`
	Vacancy         int     `json:"vacancy" validate:"required,min=1"`
	EmploymentType  string  `json:"employmentType" validate:"required,oneof=full_time part_time contract internship temporary freelance"`
	ExperienceLevel string  `json:"experienceLevel" validate:"required,oneof=entry junior mid senior lead executive"`
	LocationType    string  `json:"locationType" validate:"required,oneof=onsite remote hybrid"`
	CareerStage     string  `json:"careerStage" validate:"required,oneof=student graduate early_career mid_career senior_career"`
	CategoryID      string  `json:"categoryId" validate:"required"`
	Role            string  `json:"role" validate:"required"`
	Compensation    *string `json:"compensation,omitempty"`
	ExpirationDate  string  `json:"expirationDate" validate:"required,datetime=2006-01-02"`
	CompanyURL      string  `json:"companyUrl,omitempty" validate:"omitempty,url"`
	Description     string  `json:"description" validate:"richtext,richtextmax=5000"`
	PublishDate     string  `json:"publishDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	UserID          string  `json:"userId,omitempty"`
}

// NoticePeriodKey is the requirement name of the reserved notice period item.
const NoticePeriodKey = "noticePeriod"

// Requirement status values for generic requirement items.
const (
	StatusRequired = "Required"
	StatusOptional = "Optional"
)

// RequirementItem is one entry of the application requirements sub-collection.
// Status holds Required/Optional for generic items and the notice period value
// for the reserved item. Label is a legacy free-form name that is migrated into
// Requirement when a posting is loaded.
type RequirementItem struct {
	Requirement string `json:"requirement"`
	Status      string `json:"status,omitempty"`
	Label       string `json:"label,omitempty"`
}

// IsNoticePeriod reports whether the item is the reserved notice period item.
func (r RequirementItem) IsNoticePeriod() bool {
	return r.Requirement == NoticePeriodKey
}

// CustomQuestion is a recruiter-authored question shown to applicants.
type CustomQuestion struct {
	ID       string `json:"id"`
	Question string `json:"question,omitempty"`
}

// NormalizeRequirementName maps a free-form label onto a typed requirement name.
// Known spellings of the notice period collapse onto NoticePeriodKey; anything
// else is returned trimmed.
func NormalizeRequirementName(label string) string {
	trimmed := strings.TrimSpace(label)
	key := strings.ToLower(trimmed)
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	if key == strings.ToLower(NoticePeriodKey) {
		return NoticePeriodKey
	}
	return trimmed
}
