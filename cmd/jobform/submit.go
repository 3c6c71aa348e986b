package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobboard-forms/internal/config"
	"github.com/jonathan/jobboard-forms/internal/jobapi"
	"github.com/jonathan/jobboard-forms/internal/observability"
	"github.com/jonathan/jobboard-forms/internal/submission"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a job posting draft",
	Long: "Validates a draft file and sends it to the job posting API: a new posting is created, " +
		"or an existing one is updated when the draft carries a postingId.",
	RunE: runSubmit,
}

var (
	submitInput  string
	submitUserID string
	submitToken  string
)

func init() {
	submitCmd.Flags().StringVarP(&submitInput, "in", "i", "", "Path to draft JSON file (required)")
	submitCmd.Flags().StringVarP(&submitUserID, "user", "u", "", "ID of the posting owner (required)")
	submitCmd.Flags().StringVar(&submitToken, "token", "", "Bearer token for the job posting API (defaults to JOB_API_TOKEN)")

	if err := submitCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}
	if err := submitCmd.MarkFlagRequired("user"); err != nil {
		panic(fmt.Sprintf("failed to mark user flag as required: %v", err))
	}

	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.JobAPIBaseURL == "" {
		return fmt.Errorf("JOB_API_BASE_URL environment variable is required")
	}

	token := submitToken
	if token == "" {
		token = os.Getenv("JOB_API_TOKEN")
	}

	logger, err := newLogger(verbose || cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	form, err := loadDraft(submitInput)
	if err != nil {
		return err
	}

	client, err := jobapi.NewClient(jobapi.Options{
		BaseURL: cfg.JobAPIBaseURL,
		Timeout: cfg.JobAPITimeoutDuration(),
		Mode:    jobapi.PayloadMode(cfg.PayloadMode),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create job api client: %w", err)
	}

	creds := submission.Credentials{UserID: submitUserID, Token: token}
	printer := observability.NewPrinter(cmd.ErrOrStderr())
	if verbose {
		printer.PrintPosting(form)
		if sub, err := submission.Assemble(form, creds); err == nil {
			printer.PrintChanges(sub)
		}
	}

	outcome, err := submission.NewAssembler(client, logger).Submit(cmd.Context(), form, creds)
	if err != nil {
		var serr *submission.Error
		if errors.As(err, &serr) && serr.Kind == submission.KindValidation {
			reports, _ := checkDraft(form, 0)
			printReports(cmd.ErrOrStderr(), reports)
		}
		return err
	}

	if verbose {
		printer.PrintOutcome(outcome)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}
