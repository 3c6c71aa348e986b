package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jonathan/jobboard-forms/internal/jobform"
	"github.com/jonathan/jobboard-forms/internal/schemas"
)

// stepReport is the validation outcome of one form step.
type stepReport struct {
	Step   jobform.Step
	Result jobform.Result
}

// loadDraft reads a draft file, checks it against the draft schema and
// restores the form it describes.
func loadDraft(path string) (*jobform.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("draft file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read draft file: %w", err)
	}

	if err := schemas.ValidateDraft(data); err != nil {
		return nil, fmt.Errorf("draft %s does not match the draft schema: %w", path, err)
	}

	return jobform.Unmarshal(data)
}

// checkDraft validates every step, or only step when it is non-zero.
func checkDraft(f *jobform.Form, step int) ([]stepReport, error) {
	steps := f.Steps().Steps()
	if step != 0 && (step < 1 || step > len(steps)) {
		return nil, fmt.Errorf("step %d is out of range 1-%d", step, len(steps))
	}

	var reports []stepReport
	for _, s := range steps {
		if step != 0 && s.Number != step {
			continue
		}
		reports = append(reports, stepReport{Step: s, Result: f.ValidateStep(s.Number)})
	}
	return reports, nil
}

// printReports writes one line per step followed by its field errors in key order.
// It returns the number of invalid steps.
func printReports(w io.Writer, reports []stepReport) int {
	invalid := 0
	for _, r := range reports {
		status := "ok"
		if !r.Result.Valid {
			status = "invalid"
			invalid++
		}
		fmt.Fprintf(w, "Step %d (%s): %s\n", r.Step.Number, r.Step.Title, status)

		keys := make([]string, 0, len(r.Result.Errors))
		for k := range r.Result.Errors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  - %s: %s\n", k, r.Result.Errors[k])
		}
	}
	return invalid
}
