package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scoreJSON bool

var scoreCmd = &cobra.Command{
	Use:   "score <resume-id>",
	Short: "Print the Reality Score of a verified resume",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print the raw report as JSON")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	report, err := newClient(cfg).FetchScore(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch score: %w", err)
	}

	if scoreJSON {
		return writeJSON(cmd, report)
	}
	newPrinter(cmd).PrintScoreReport(report)
	return nil
}
