package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status <resume-id>",
	Short: "Show the current verification job state",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw response as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	status, err := newClient(cfg).PollVerification(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch verification status: %w", err)
	}

	if statusJSON {
		return writeJSON(cmd, status)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Resume ID: %s\n", status.ResumeID)
	_, _ = fmt.Fprintf(out, "Status:    %s\n", status.Status)
	if status.Message != "" {
		_, _ = fmt.Fprintf(out, "Message:   %s\n", status.Message)
	}
	if !status.Error.IsAbsent() {
		_, _ = fmt.Fprintf(out, "Error:     %s\n", status.Error.Text)
	}
	return nil
}
