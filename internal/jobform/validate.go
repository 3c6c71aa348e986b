package jobform

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field path to a human-readable message.
type FieldErrors map[string]string

// Result is the outcome of validating one step.
type Result struct {
	Valid  bool        `json:"valid"`
	Errors FieldErrors `json:"errors,omitempty"`
}

// Draft is the in-memory state validated by ValidateStep. The sub-collections
// hold every entry so error keys line up with collection indices.
type Draft struct {
	Posting      JobPosting
	Requirements []Entry[RequirementItem]
	Questions    []Entry[CustomQuestion]
}

// stepFields lists the JobPosting fields owned by each scalar step.
var stepFields = map[int][]string{
	StepBasicInfo: {
		"JobTitle", "Department", "Country", "Region", "Vacancy",
		"EmploymentType", "ExperienceLevel", "LocationType", "CareerStage",
		"CategoryID", "Role", "ExpirationDate", "CompanyURL", "PublishDate",
	},
	StepDescription: {"Description"},
}

var fieldLabels = map[string]string{
	"jobTitle":        "Job title",
	"department":      "Department",
	"country":         "Country",
	"region":          "Region",
	"vacancy":         "Vacancy",
	"employmentType":  "Employment type",
	"experienceLevel": "Experience level",
	"locationType":    "Location type",
	"careerStage":     "Career stage",
	"categoryId":      "Category",
	"role":            "Role",
	"expirationDate":  "Expiration date",
	"companyUrl":      "Company URL",
	"description":     "Description",
	"publishDate":     "Publish date",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("richtext", func(fl validator.FieldLevel) bool {
		return VisibleText(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("richtextmax", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return utf8.RuneCountInString(VisibleText(fl.Field().String())) <= limit
	})
	return v
}

// ValidateStep checks only the fields that belong to step. The review step
// checks every earlier step. It never returns an error value: problems are
// reported in the result.
func ValidateStep(step int, d Draft) Result {
	errs := FieldErrors{}

	switch step {
	case StepBasicInfo, StepDescription:
		validatePosting(d.Posting, stepFields[step], errs)
	case StepRequirements:
		validateRequirements(d.Requirements, errs)
	case StepQuestions:
		validateQuestions(d.Questions, errs)
	case StepReview:
		for s := StepBasicInfo; s < StepReview; s++ {
			for k, v := range ValidateStep(s, d).Errors {
				errs[k] = v
			}
		}
	default:
		errs["step"] = fmt.Sprintf("Unknown step %d", step)
	}

	if len(errs) == 0 {
		return Result{Valid: true}
	}
	return Result{Valid: false, Errors: errs}
}

func validatePosting(p JobPosting, fields []string, errs FieldErrors) {
	err := validate.StructPartial(p, fields...)
	if err == nil {
		return
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["posting"] = err.Error()
		return
	}
	for _, fe := range verrs {
		if _, exists := errs[fe.Field()]; exists {
			continue
		}
		errs[fe.Field()] = fieldMessage(fe)
	}
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required", "richtext":
		return label + " is required"
	case "max", "richtextmax":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return label + " must be a date in YYYY-MM-DD format"
	case "url":
		return label + " must be a valid URL"
	default:
		return label + " is invalid"
	}
}

func validateRequirements(entries []Entry[RequirementItem], errs FieldErrors) {
	notice := 0
	for i, e := range entries {
		if e.Tombstoned() {
			continue
		}
		key := fmt.Sprintf("applicationRequirements[%d]", i)
		item := e.Value

		if item.IsNoticePeriod() {
			notice++
			if strings.TrimSpace(item.Status) == "" {
				errs[key+".status"] = "Notice period is required"
			}
			continue
		}

		if strings.TrimSpace(item.Requirement) == "" {
			errs[key+".requirement"] = "Requirement name is required"
		}
		if item.Status != StatusRequired && item.Status != StatusOptional {
			errs[key+".status"] = "Status must be Required or Optional"
		}
	}

	switch {
	case notice == 0:
		errs["applicationRequirements"] = "Notice period is required"
	case notice > 1:
		errs["applicationRequirements"] = "Notice period can only be listed once"
	}
}

func validateQuestions(entries []Entry[CustomQuestion], errs FieldErrors) {
	for i, e := range entries {
		if e.Tombstoned() {
			continue
		}
		if strings.TrimSpace(e.Value.Question) == "" {
			errs[fmt.Sprintf("customQuestions[%d].question", i)] = "Question is required"
		}
	}
}
