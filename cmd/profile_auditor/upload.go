package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	uploadName  string
	uploadEmail string
	uploadJSON  bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <resume-file>",
	Short: "Upload a resume PDF for parsing",
	Long: `Upload a resume file to the backend. The printed resume ID is the input to
the verify, status, score and invite commands.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "Candidate name sent with the upload")
	uploadCmd.Flags().StringVar(&uploadEmail, "email", "", "Candidate email sent with the upload")
	uploadCmd.Flags().BoolVar(&uploadJSON, "json", false, "Print the raw response as JSON")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	result, err := newClient(cfg).UploadResume(cmd.Context(), args[0], uploadName, uploadEmail)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	if uploadJSON {
		return writeJSON(cmd, result)
	}
	newPrinter(cmd).PrintUpload(result)
	return nil
}
