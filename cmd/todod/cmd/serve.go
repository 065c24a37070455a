package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gobeyondidentity/puretodo/internal/api"
	"github.com/gobeyondidentity/puretodo/internal/version"
)

// shutdownTimeout bounds how long in-flight requests may take on exit.
const shutdownTimeout = 10 * time.Second

func init() {
	serveCmd.Flags().String("listen", "", "HTTP listen address (default :8080)")
	serveCmd.Flags().Bool("debug", false, "Log per-request timing traces")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the HTTP API server until interrupted.

While the database has no users, POST /api/users is open so the first
account can be created remotely; that account is always an admin.

Examples:
  todod serve
  todod serve --listen 127.0.0.1:9000 --debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("listen") {
		cfg.Listen, _ = cmd.Flags().GetString("listen")
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug, _ = cmd.Flags().GetBool("debug")
		logger = cfg.NewLogger(cmd.ErrOrStderr())
	}

	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := api.NewServer(api.ServerConfig{
		Store:  a.store,
		Issuer: a.issuer,
		Audit:  a.recorder,
		Logger: logger,
		Debug:  cfg.Debug,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := a.store.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		logger.Warn("no users exist; setup is open until the first user is created")
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("todod listening", "addr", cfg.Listen, "version", version.String(), "database", cfg.Database)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
