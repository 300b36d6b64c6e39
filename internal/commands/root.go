package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"costs/internal/backend"
	"costs/internal/buildinfo"
	"costs/internal/cli"
	"costs/internal/config"
	applog "costs/internal/log"
	"costs/internal/trace"
)

// app carries what the persistent setup resolved for the running command.
type app struct {
	envFile string
	cfg     *config.Config
	logger  *applog.Logger
	now     func() time.Time
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{now: time.Now}

	rootCmd := &cobra.Command{
		Use:     "costs",
		Short:   "Record personal expenses and report on them by month",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "optional dotenv file loaded before configuration")

	rootCmd.AddCommand(
		newAddCommand(a),
		newListCommand(a),
		newReportCommand(a),
		newClearCommand(a),
		newExportCommand(a),
		newWatchCommand(a),
		newVersionCommand(),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cli.LoadEnvFile(a.envFile)

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}

	logger, err := cli.SetupLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	runID := trace.GenerateRunID()
	a.cfg = cfg
	a.logger = logger.With(applog.FieldRunID, runID)
	applog.SetDefault(a.logger)

	ctx := trace.NewContext(cmd.Context(), runID)
	cmd.SetContext(applog.NewContext(ctx, a.logger))

	a.logger.DebugContext(ctx, "Command started",
		applog.FieldOperation, cmd.Name(),
		applog.FieldBackend, cfg.DataBackend,
		applog.FieldStore, cfg.StoreName)
	return nil
}

// openBackend opens the configured store. Callers must run the returned
// cleanup.
func (a *app) openBackend(ctx context.Context) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}

	res, err := backend.NewFactory(a.logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	return res, nil
}

func (a *app) closeBackend(ctx context.Context, res *backend.BackendResult) {
	if err := res.Cleanup(); err != nil {
		a.logger.WarnContext(ctx, "Failed to close backend", applog.FieldError, err)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// Skips configuration loading
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "costs %s\n", buildinfo.String())
			return err
		},
	}
}
