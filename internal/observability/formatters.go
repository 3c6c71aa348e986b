// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/jobboard-forms/internal/jobform"
	"github.com/jonathan/jobboard-forms/internal/submission"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintPosting outputs a summary of the posting fields and where the form stands.
func (p *Printer) PrintPosting(f *jobform.Form) {
	if f == nil {
		return
	}

	var sb strings.Builder
	posting := f.Posting

	if f.PostingID != "" {
		sb.WriteString(fmt.Sprintf("Editing:   %s\n", f.PostingID))
	} else {
		sb.WriteString("Editing:   (new posting)\n")
	}
	sb.WriteString(fmt.Sprintf("Title:     %s\n", posting.JobTitle))
	if posting.Department != "" {
		sb.WriteString(fmt.Sprintf("Dept:      %s\n", posting.Department))
	}
	sb.WriteString(fmt.Sprintf("Location:  %s, %s (%s)\n", posting.Region, posting.Country, posting.LocationType))
	sb.WriteString(fmt.Sprintf("Type:      %s / %s\n", posting.EmploymentType, posting.ExperienceLevel))
	sb.WriteString(fmt.Sprintf("Vacancies: %d\n", posting.Vacancy))
	sb.WriteString(fmt.Sprintf("Expires:   %s\n", posting.ExpirationDate))
	sb.WriteString(fmt.Sprintf("Step:      %d of %d", f.Steps().Current(), f.Steps().Last()))

	p.printBox("JOB POSTING", sb.String())
}

// PrintChanges outputs the create, update and delete lists of both sub-collections.
func (p *Printer) PrintChanges(s *submission.Submission) {
	if s == nil {
		return
	}

	var sb strings.Builder
	if s.IsUpdate() {
		sb.WriteString(fmt.Sprintf("Update of %s\n\n", s.PostingID))
	} else {
		sb.WriteString("New posting\n\n")
	}

	sb.WriteString("Application requirements:\n")
	writeChanges(&sb, s.Requirements, func(r jobform.RequirementItem) string {
		if r.Status == "" {
			return r.Requirement
		}
		return fmt.Sprintf("%s (%s)", r.Requirement, r.Status)
	})

	sb.WriteString("\nCustom questions:\n")
	writeChanges(&sb, s.Questions, func(q jobform.CustomQuestion) string {
		return q.Question
	})

	p.printBox("PENDING CHANGES", strings.TrimSuffix(sb.String(), "\n"))
}

func writeChanges[T any](sb *strings.Builder, cs submission.ChangeSet[T], describe func(T) string) {
	if cs.Len() == 0 {
		sb.WriteString("  (no changes)\n")
		return
	}

	shown := 0
	for _, e := range cs.Tagged() {
		if shown == maxItemsToShow {
			break
		}
		label := describe(e.Value)
		if e.Tag == jobform.TagDelete {
			label = e.ID
		}
		sb.WriteString(fmt.Sprintf("  %-6s %s\n", e.Tag, label))
		shown++
	}
	if cs.Len() > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", cs.Len()-maxItemsToShow))
	}
}

// PrintOutcome outputs the result of a submission.
func (p *Printer) PrintOutcome(o *submission.Outcome) {
	if o == nil {
		return
	}

	action := "Updated"
	if o.Created {
		action = "Created"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s posting %s\n", action, o.RecordID))
	sb.WriteString(fmt.Sprintf("Requirement changes: %d\n", o.Requirements))
	sb.WriteString(fmt.Sprintf("Question changes:    %d", o.Questions))

	p.printBox("SUBMITTED", sb.String())
}
