package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/medinsight/internal/config"
	"github.com/roach88/medinsight/internal/ledger"
	"github.com/roach88/medinsight/internal/telemetry"
)

// session is what a ledger command runs against: the effective config, the
// process logger, and the opened ledger.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	ledger    *ledger.Ledger
	formatter *OutputFormatter
	shutdown  func(context.Context) error
}

// loadConfig reads the config file named by opts and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	return cfg, nil
}

// newLogger builds the stderr text logger. --verbose wins over log_level.
func newLogger(w io.Writer, cfg *config.Config, verbose bool) *slog.Logger {
	level := cfg.Level()
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Diagnostics go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// openSession loads configuration, installs logging and tracing, and opens
// the process-wide ledger. Callers must Close the session.
func openSession(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*session, error) {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, "failed to load config", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg, opts.Verbose)
	slog.SetDefault(logger)

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		UseStdout: cfg.Tracing.Stdout,
		Writer:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, "failed to initialize tracing", err)
	}

	if dir := filepath.Dir(cfg.Database); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = shutdown(ctx)
			return nil, formatter.Fail(ExitCommandError, "failed to open database", err)
		}
	}

	logger.Debug("opening database", "path", cfg.Database)
	ledger.Configure(cfg.Database, ledger.WithLogger(logger))
	l, err := ledger.Default()
	if err != nil {
		_ = shutdown(ctx)
		return nil, formatter.Fail(ExitCommandError, "failed to open database", err)
	}

	return &session{
		cfg:       cfg,
		logger:    logger,
		ledger:    l,
		formatter: formatter,
		shutdown:  shutdown,
	}, nil
}

// Close closes the ledger and flushes pending spans.
func (s *session) Close(ctx context.Context) {
	if err := ledger.ResetDefault(); err != nil {
		s.logger.Error("error closing database", "err", err)
	}
	if err := s.shutdown(ctx); err != nil {
		s.logger.Error("error flushing traces", "err", err)
	}
}

// commandContext returns the command's context, or Background when the
// command is executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
