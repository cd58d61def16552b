package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/backend"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/config"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/credentials"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/observability"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// loadConfig resolves the configuration: file, then environment, then defaults,
// then any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIBaseURL = apiURL
	}
	if flags.Changed("store") {
		cfg.CredentialStore = credentialKind
	}
	if flags.Changed("credential-path") {
		cfg.CredentialPath = credentialPath
	}
	if flags.Changed("session") {
		cfg.Session = sessionName
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newClient(cfg config.Config) *backend.Client {
	return backend.New(&backend.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.RequestTimeout.Std(),
	})
}

// newLogger writes to stderr in verbose mode and discards otherwise.
func newLogger(cmd *cobra.Command, cfg config.Config) *log.Logger {
	if !cfg.Verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
}

func newPrinter(cmd *cobra.Command) *observability.Printer {
	return observability.NewPrinter(cmd.OutOrStdout())
}

func openStore(ctx context.Context, cfg config.Config) (credentials.Store, io.Closer, error) {
	store, factory, err := credentials.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	return store, factory, nil
}

// handleFlags registers --github, --twitter and --linkedin on cmd.
func handleFlags(cmd *cobra.Command, h *types.SocialHandles) {
	cmd.Flags().StringVar(&h.GitHub, "github", "", "GitHub username")
	cmd.Flags().StringVar(&h.Twitter, "twitter", "", "Twitter username")
	cmd.Flags().StringVar(&h.LinkedIn, "linkedin", "", "LinkedIn username")
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
