package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/credentials"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/server"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/server/ratelimit"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/verification"
)

var (
	serveAddr       string
	serveSessionTTL time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run verifications behind a local HTTP API",
	Long: `Start an HTTP server that runs verification sessions on behalf of browser or
script clients and streams their progress as server-sent events.

Endpoints:
  GET    /health                       - Health check
  POST   /api/sessions/{id}            - Start (or join) verification of a resume
  GET    /api/sessions/{id}            - Current snapshot
  GET    /api/sessions/{id}/events     - Snapshot stream (SSE)
  POST   /api/sessions/{id}/retry      - Retry with corrected handles
  DELETE /api/sessions/{id}            - Tear down the session
  POST   /api/invite/{id}              - Email an interview invitation`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8090)")
	serveCmd.Flags().DurationVar(&serveSessionTTL, "session-ttl", 30*time.Minute, "How long finished sessions are kept")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.ListenAddr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory, err := credentials.NewFactory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	defer func() { _ = factory.Close() }()

	srv, err := server.New(server.Config{
		Addr:       cfg.ListenAddr,
		Backend:    newClient(cfg),
		Stores:     factory,
		Policy:     verification.PolicyFromConfig(cfg),
		RateLimit:  ratelimit.LoadConfig(nil),
		SessionTTL: serveSessionTTL,
		Logger:     log.New(cmd.ErrOrStderr(), "", log.LstdFlags),
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting server on %s (backend %s)\n", cfg.ListenAddr, cfg.APIBaseURL)
	return srv.Run(ctx)
}
