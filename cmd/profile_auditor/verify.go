package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/verification"
)

var (
	verifyHandles types.SocialHandles
	verifyJSON    bool
	verifyQuiet   bool
)

// errVerificationFailed is returned after the failure itself has been printed.
var errVerificationFailed = errors.New("verification did not produce a score")

var verifyCmd = &cobra.Command{
	Use:   "verify <resume-id>",
	Short: "Verify a resume's social profiles and print its Reality Score",
	Long: `Run the full verification flow for an uploaded resume: wait for parsing,
start verification with the resolved handles, poll until the job finishes and
fetch the score.

Handles given by flag win over handles saved with "credentials set", which win
over handles extracted from the resume. Saved handles are cleared when the
command exits.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	handleFlags(verifyCmd, &verifyHandles)
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Print the final snapshot as JSON")
	verifyCmd.Flags().BoolVarP(&verifyQuiet, "quiet", "q", false, "Do not print progress lines")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := verifyHandles.Validate(); err != nil {
		return fmt.Errorf("invalid handles: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	logger := newLogger(cmd, cfg)
	o, err := verification.New(args[0], newClient(cfg), store,
		verification.WithPolicy(verification.PolicyFromConfig(cfg)),
		verification.WithOverrides(verifyHandles.Normalized()),
		verification.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer o.Teardown()

	updates, unsubscribe := o.Subscribe()
	defer unsubscribe()

	printer := newPrinter(cmd)
	var final verification.Snapshot
	done := make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(done)
		var last verification.Step
		for snap := range updates {
			if snap.Terminal() {
				final = snap
				return nil
			}
			if snap.Started() && snap.Step != last && !verifyQuiet && !verifyJSON {
				printer.PrintProgress(snap)
			}
			last = snap.Step
		}
		return verification.ErrClosed
	})
	g.Go(func() error {
		select {
		case <-done:
			return nil
		case <-gctx.Done():
			o.Teardown()
			return gctx.Err()
		}
	})

	o.Start()
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, verification.ErrClosed) {
			return fmt.Errorf("verification interrupted")
		}
		return err
	}

	if verifyJSON {
		if err := writeJSON(cmd, final); err != nil {
			return err
		}
	} else {
		printer.PrintSnapshot(final)
	}

	if final.Phase != verification.PhaseResult {
		return errVerificationFailed
	}
	return nil
}
