package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobboard-forms/internal/observability"
	"github.com/jonathan/jobboard-forms/internal/submission"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a job posting draft",
	Long:  "Checks a draft file against the draft schema and reports the validation result of each form step.",
	RunE:  runValidate,
}

var (
	validateInput string
	validateStep  int
)

func init() {
	validateCmd.Flags().StringVarP(&validateInput, "in", "i", "", "Path to draft JSON file (required)")
	validateCmd.Flags().IntVarP(&validateStep, "step", "s", 0, "Only validate this step")

	if err := validateCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	form, err := loadDraft(validateInput)
	if err != nil {
		return err
	}

	reports, err := checkDraft(form, validateStep)
	if err != nil {
		return err
	}

	if verbose {
		observability.NewPrinter(cmd.OutOrStdout()).PrintPosting(form)
	}

	if invalid := printReports(cmd.OutOrStdout(), reports); invalid > 0 {
		return fmt.Errorf("%d of %d steps are invalid", invalid, len(reports))
	}

	if verbose {
		// A complete draft also shows what a submission would send.
		if sub, err := submission.Assemble(form, submission.Credentials{}); err == nil {
			observability.NewPrinter(cmd.OutOrStdout()).PrintChanges(sub)
		}
	}
	return nil
}
