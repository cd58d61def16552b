// Package main provides the profile_auditor CLI, which uploads resumes, runs
// social profile verification against the backend and reports the Reality Score.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "profile_auditor",
	Short: "Resume verification client",
	Long: `profile_auditor drives the resume verification backend: it uploads a resume,
verifies the GitHub, Twitter and LinkedIn profiles it references, and prints the
resulting Reality Score.

Configuration can be loaded from a JSON or YAML file using --config, from a .env
file, and from PROFILE_AUDITOR_* environment variables. Flags override all of them.`,
	SilenceUsage: true,
}

var (
	configPath     string
	apiURL         string
	credentialKind string
	credentialPath string
	sessionName    string
	verbose        bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	flags.StringVar(&apiURL, "api-url", "", "Verification backend base URL")
	flags.StringVar(&credentialKind, "store", "", "Credential store: memory, file, redis or postgres")
	flags.StringVar(&credentialPath, "credential-path", "", "File credential store location")
	flags.StringVar(&sessionName, "session", "", "Credential session name")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
