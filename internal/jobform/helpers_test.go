package jobform

func validPosting() JobPosting {
	return JobPosting{
		JobTitle:        "Backend Engineer",
		Department:      "Platform",
		Country:         "US",
		Region:          "CA",
		Vacancy:         2,
		EmploymentType:  EmploymentFullTime,
		ExperienceLevel: ExperienceSenior,
		LocationType:    LocationRemote,
		CareerStage:     CareerMid,
		CategoryID:      "cat-engineering",
		Role:            "Software Engineer",
		ExpirationDate:  "2026-12-31",
		CompanyURL:      "https://example.com/careers",
		Description:     "<p>Build and run <strong>APIs</strong>.</p>",
	}
}

// validForm returns a new form that passes every step.
func validForm() *Form {
	f := New()
	f.Posting = validPosting()
	f.Requirements.Update(0, func(r *RequirementItem) { r.Status = "2 weeks" })
	return f
}

func countNoticePeriods(c *Collection[RequirementItem]) int {
	n := 0
	for _, item := range c.Active() {
		if item.IsNoticePeriod() {
			n++
		}
	}
	return n
}
