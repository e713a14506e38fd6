package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/priotodo/internal/api"
	"github.com/Makepad-fr/priotodo/internal/config"
	"github.com/Makepad-fr/priotodo/internal/logging"
	"github.com/Makepad-fr/priotodo/internal/store"
	"github.com/Makepad-fr/priotodo/internal/store/memstore"
	"github.com/Makepad-fr/priotodo/internal/store/sqlitestore"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Host    string
	Port    int
	Backend string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the todo HTTP API until interrupted.

The collection lives in memory and is gone when the server stops.

Example:
  priotodo serve
  priotodo serve --port 8080 --backend sqlite`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "listen host (default all interfaces)")
	cmd.Flags().IntVarP(&opts.Port, "port", "p", config.DefaultPort, "listen port")
	cmd.Flags().StringVar(&opts.Backend, "backend", config.DefaultBackend, "store backend (memory|sqlite)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := *opts.Config
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = opts.Host
	}
	if flags.Changed("port") {
		cfg.Server.Port = opts.Port
	}
	if flags.Changed("backend") {
		cfg.Server.Backend = opts.Backend
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger := logging.New(cmd.ErrOrStderr(), logOptions(cfg.Log))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting server...")
	logger.Infof("Port set to: %d", cfg.Server.Port)

	st, err := openStore(ctx, cfg.Server.Backend)
	if err != nil {
		logger.Error("Server error", "err", err)
		return WrapExitError(ExitFailure, "failed to open store", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing store", "err", closeErr)
		}
	}()
	logger.Debug("store ready", "backend", cfg.Server.Backend)

	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			logger.Errorf("Port %d is already in use. Try a different port.", cfg.Server.Port)
			return WrapExitError(ExitFailure, "server failed to start", err)
		}
		logger.Error("Server error", "err", err)
		return WrapExitError(ExitFailure, "server failed to start", err)
	}

	srv := &http.Server{
		Handler:           api.New(st, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, srv, ln, cfg.Server, logger)
}

// serve runs srv on ln until ctx is done, then shuts down within the
// configured timeout.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, cfg config.ServerConfig, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Infof("Server running on http://localhost:%d", cfg.Port)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("Server error", "err", err)
		return WrapExitError(ExitFailure, "server error", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout.Duration)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server error", "err", err)
		return WrapExitError(ExitFailure, "shutdown failed", err)
	}
	logger.Info("server stopped")
	return nil
}

// logOptions layers the [log] section over the logging defaults. Empty
// level or format keep the default.
func logOptions(c config.LogConfig) logging.Options {
	opts := logging.DefaultOptions()
	if c.Level != "" {
		opts.Level = c.Level
	}
	if c.Format != "" {
		opts.Format = c.Format
	}
	opts.ReportTimestamp = c.Timestamps
	opts.ReportCaller = c.Caller
	return opts
}

func openStore(ctx context.Context, backend string) (store.Store, error) {
	switch backend {
	case config.BackendSQLite:
		return sqlitestore.Open(ctx)
	case config.BackendMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
