package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/credentials"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

var credentialHandles types.SocialHandles

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage saved social handles",
	Long: `Saved handles are used by the next verify run in the same session and are
cleared once that run ends.`,
}

var credentialsGetCmd = &cobra.Command{
	Use:   "get [provider]",
	Short: "Show saved handles",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCredentialsGet,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save handles for the next verification",
	Args:  cobra.NoArgs,
	RunE:  runCredentialsSet,
}

var credentialsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all saved handles",
	Args:  cobra.NoArgs,
	RunE:  runCredentialsClear,
}

func init() {
	handleFlags(credentialsSetCmd, &credentialHandles)
	credentialsCmd.AddCommand(credentialsGetCmd, credentialsSetCmd, credentialsClearCmd)
	rootCmd.AddCommand(credentialsCmd)
}

func withStore(cmd *cobra.Command, fn func(credentials.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, closer, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	return fn(store)
}

func runCredentialsGet(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(store credentials.Store) error {
		if len(args) == 1 {
			p, err := types.ParseProvider(args[0])
			if err != nil {
				return err
			}
			v, err := store.Get(cmd.Context(), p)
			if err != nil {
				return fmt.Errorf("failed to read %s handle: %w", p.Label(), err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		}

		handles, err := credentials.Load(cmd.Context(), store)
		if err != nil {
			return fmt.Errorf("failed to read handles: %w", err)
		}
		newPrinter(cmd).PrintHandles(handles)
		return nil
	})
}

func runCredentialsSet(cmd *cobra.Command, _ []string) error {
	handles := credentialHandles.Normalized()
	if handles.IsEmpty() {
		return fmt.Errorf("at least one of --github, --twitter or --linkedin is required")
	}
	if err := handles.Validate(); err != nil {
		return fmt.Errorf("invalid handles: %w", err)
	}

	return withStore(cmd, func(store credentials.Store) error {
		if err := credentials.Seed(cmd.Context(), store, handles); err != nil {
			return fmt.Errorf("failed to save handles: %w", err)
		}
		saved, err := credentials.Load(cmd.Context(), store)
		if err != nil {
			return fmt.Errorf("failed to read handles: %w", err)
		}
		newPrinter(cmd).PrintHandles(saved)
		return nil
	})
}

func runCredentialsClear(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(store credentials.Store) error {
		if err := store.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear handles: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Saved handles cleared.")
		return nil
	})
}
