package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/faultmock/pkg/cli/internal/output"
	"github.com/getmockd/faultmock/pkg/config"
	"github.com/getmockd/faultmock/pkg/engine"
	"github.com/getmockd/faultmock/pkg/logging"
	"github.com/getmockd/faultmock/pkg/metrics"
	"github.com/getmockd/faultmock/pkg/store"
)

func newServeCommand() *cobra.Command {
	var settingsFile string

	cmd := &cobra.Command{
		Use:   "serve [PATH...]",
		Short: "Start the server",
		Long: `Start the server with routes from PATH (files, directories or globs) or
from the routes setting. SIGHUP reloads routes and data; SIGINT and SIGTERM
shut down gracefully, releasing requests held by silent faults.`,
		Example: `  # Serve a directory of route files
  faultmock serve routes/

  # Data blobs from a directory, then Redis
  faultmock serve routes/ --data-dir data/ --redis-addr localhost:6379

  # Settings from a file, overridden by the environment
  FAULTMOCK_PORT=9000 faultmock serve --config faultmock.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			for _, p := range args {
				if err := flags.Set("routes", p); err != nil {
					return err
				}
			}
			settings, err := config.LoadSettings(settingsFile, flags)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), settings, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&settingsFile, "config", "c", "", "Path to a settings file (YAML, JSON or TOML)")
	f.String("host", "", "Interface to listen on (default all)")
	f.IntP("port", "p", config.DefaultPort, "HTTP server port (0 picks a free port)")
	f.StringSlice("routes", nil, "Route files, directories or globs")
	f.String("data-dir", "", "Directory holding data blobs for dataFile")
	f.String("data-pattern", "", "Glob selecting blobs below --data-dir (default **/*.{json,yaml,yml})")
	f.String("redis-addr", "", "Redis address for data blobs (host:port)")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database")
	f.String("redis-prefix", config.DefaultRedisPrefix, "Key prefix of data blobs in Redis")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	f.String("log-file", "", "Also write JSON logs to this file")
	f.String("log-file-level", "debug", "Log level of the --log-file copy")
	f.Duration("read-header-timeout", config.DefaultReadHeaderTimeout, "Time allowed to read request headers")
	f.Duration("shutdown-timeout", config.DefaultShutdownTimeout, "Time allowed for in-flight requests on shutdown")
	f.Int("max-connections", 0, "Maximum concurrent connections (0 = unlimited)")
	return cmd
}

// runServe runs the server until ctx ends or a shutdown signal arrives.
func runServe(ctx context.Context, settings *config.Settings, stdout, stderr io.Writer) error {
	logger, closeLog, err := newLogger(settings.Log, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	builder := config.NewBuilder(settings, config.WithLogger(logger))
	defer func() { _ = builder.Close() }()

	snap, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	srv := engine.NewServer(store.NewHolder(snap),
		engine.WithAddr(settings.Addr()),
		engine.WithLogger(logger),
		engine.WithServerMetrics(metrics.New()),
		engine.WithReadHeaderTimeout(settings.ReadHeaderTimeout),
		engine.WithMaxConnections(settings.MaxConnections),
	)
	if err := srv.Start(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "faultmock listening on %s (%d routes)\n", srv.Addr(), len(snap.Routes()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

wait:
	for {
		select {
		case <-ctx.Done():
			break wait
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				if err := srv.Reload(func() (*store.Snapshot, error) { return builder.Build(ctx) }); err != nil {
					output.Warn(stderr, "reload failed: %v", err)
				}
				continue
			}
			break wait
		}
	}

	fmt.Fprintln(stdout, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(settings))
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func shutdownTimeout(s *config.Settings) time.Duration {
	if s.ShutdownTimeout > 0 {
		return s.ShutdownTimeout
	}
	return config.DefaultShutdownTimeout
}

// newLogger builds the operational logger. The returned func closes the log
// file, if one was opened.
func newLogger(s config.LogSettings, stderr io.Writer) (*slog.Logger, func(), error) {
	cfg := logging.Config{
		Level:  logging.ParseLevel(s.Level),
		Format: logging.ParseFormat(s.Format),
		Output: stderr,
	}
	if s.File == "" {
		return logging.New(cfg), func() {}, nil
	}
	f, err := os.OpenFile(s.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	cfg.Tee = f
	cfg.TeeLevel = logging.ParseLevel(s.FileLevel)
	return logging.New(cfg), func() { _ = f.Close() }, nil
}
