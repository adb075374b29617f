// Command avocadoctl works with the avocado dataset from the terminal: it lists
// the filter options, renders chart figures as JSON, exports filtered rows,
// reads the query log and captures PNG snapshots of a running dashboard.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"avocadoanalytics/internal/config"
	"avocadoanalytics/internal/dataset"
	"avocadoanalytics/internal/infrastructure"
	"avocadoanalytics/internal/recorder"
	"avocadoanalytics/internal/services"
	"avocadoanalytics/pkg/contracts"
)

// rootOptions are the persistent flags shared by every subcommand
type rootOptions struct {
	dataPath string
	logLevel string
	record   bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "avocadoctl",
		Short:         "Avocado Analytics command line tools",
		Version:       contracts.GetVersionInfo().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&opts.dataPath, "data", "", "dataset file (.csv or .xlsx), defaults to the configured path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.record, "record", false, "write rendered queries to the configured query log")

	root.AddCommand(
		newOptionsCmd(opts),
		newRenderCmd(opts),
		newExportCmd(opts),
		newQueriesCmd(opts),
		newSnapshotCmd(opts),
	)

	return root
}

// setup loads configuration and builds the stderr logger
func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if o.dataPath != "" {
		cfg.Dataset.Path = o.dataPath
	}

	logCfg := cfg.Logging
	logCfg.Level = o.logLevel
	logCfg.Output = "console"
	logger, err := infrastructure.NewLogger(logCfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	o.cfg = cfg
	o.logger = logger
	return nil
}

// dashboardService loads the dataset and builds the service the subcommands share.
// The returned close function releases the query log, if one was opened.
func (o *rootOptions) dashboardService(ctx context.Context) (*services.DashboardService, func() error, error) {
	ds, err := dataset.Load(ctx, o.cfg.Dataset.Path)
	if err != nil {
		return nil, nil, err
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if o.record {
		sqliteRec, err := recorder.NewSQLiteRecorder(o.cfg.QueryLog.Path, o.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open query log: %w", err)
		}
		rec = sqliteRec
	}

	svc, err := services.NewDashboardService(ds, rec, nil, o.cfg.Dashboard, o.cfg.QueryLog.RecentLimit, o.logger)
	if err != nil {
		rec.Close()
		return nil, nil, err
	}
	return svc, rec.Close, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
