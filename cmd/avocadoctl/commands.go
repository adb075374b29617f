package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"avocadoanalytics/internal/exporter"
	"avocadoanalytics/internal/recorder"
	"avocadoanalytics/internal/services"
	api "avocadoanalytics/pkg/contracts/api/v1"
	"avocadoanalytics/pkg/contracts/domain"
)

// filterFlags are the query flags of render and export
type filterFlags struct {
	region    string
	avoType   string
	startDate string
	endDate   string
	defaults  bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.region, "region", "", "region to show, empty for all")
	cmd.Flags().StringVar(&f.avoType, "type", "", "avocado type (conventional or organic), empty for both")
	cmd.Flags().StringVar(&f.startDate, "start", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.endDate, "end", "", "last date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&f.defaults, "defaults", false, "start from the dashboard's initial selection")
}

// query merges the flags over the optional dashboard defaults
func (f *filterFlags) query(cmd *cobra.Command, svc *services.DashboardService) (domain.FilterQuery, error) {
	base := domain.FilterQuery{}
	if f.defaults {
		base = svc.DefaultQuery()
	}
	q, err := domain.NewFilterQuery(f.region, f.avoType, f.startDate, f.endDate)
	if err != nil {
		return domain.FilterQuery{}, err
	}
	if cmd.Flags().Changed("region") {
		base.Region = q.Region
	}
	if cmd.Flags().Changed("type") {
		base.Type = q.Type
	}
	if cmd.Flags().Changed("start") {
		base.StartDate = q.StartDate
	}
	if cmd.Flags().Changed("end") {
		base.EndDate = q.EndDate
	}
	return base, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newOptionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Print the regions, types, date bounds and default selection as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.dashboardService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			return writeJSON(cmd.OutOrStdout(), svc.Options(cmd.Context()))
		},
	}
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var filter filterFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the price and volume figures for a filter and print them as JSON",
		Example: `  avocadoctl render --region Albany --type organic --start 2015-01-04 --end 2015-12-27
  avocadoctl render --defaults`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.dashboardService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			q, err := filter.query(cmd, svc)
			if err != nil {
				return err
			}

			result, err := svc.Charts(cmd.Context(), q, recorder.SourceCLI)
			if err != nil {
				return err
			}
			for _, w := range result.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			return writeJSON(cmd.OutOrStdout(), result.Response())
		},
	}
	filter.register(cmd)
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		filter filterFlags
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the rows matching a filter as CSV or XLSX",
		Long: `Write the rows matching a filter as CSV or XLSX.

Without --out the file is named after the filter, for example
avocado_Albany_organic.csv. Use --out - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}

			svc, closeFn, err := opts.dashboardService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			q, err := filter.query(cmd, svc)
			if err != nil {
				return err
			}

			if out == "-" {
				_, err := svc.Export(cmd.Context(), q, f, cmd.OutOrStdout())
				return err
			}
			if out == "" {
				out = exporter.FileName(q, f)
			}

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			rows, err := svc.Export(cmd.Context(), q, f, file)
			if cerr := file.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(out)
				return err
			}

			abs, _ := filepath.Abs(out)
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", rows, abs)
			return nil
		},
	}
	filter.register(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "file format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout")
	return cmd
}

func newQueriesCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "queries",
		Short: "List the most recent entries of the query log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recorder.NewSQLiteRecorder(opts.cfg.QueryLog.Path, opts.logger)
			if err != nil {
				return fmt.Errorf("open query log: %w", err)
			}
			defer rec.Close()

			events, err := rec.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				entries := make([]api.QueryLogEntry, 0, len(events))
				for _, e := range events {
					entries = append(entries, api.QueryLogEntry{
						ID:         e.ID,
						At:         e.At,
						Source:     e.Source,
						Query:      e.Query,
						Points:     e.Points,
						DurationMS: float64(e.Duration.Microseconds()) / 1000,
					})
				}
				return writeJSON(cmd.OutOrStdout(), api.QueriesResponse{Queries: entries, Count: len(entries)})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tAT\tSOURCE\tPOINTS\tDURATION\tQUERY")
			for _, e := range events {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
					e.ID, e.At.Format("2006-01-02 15:04:05"), e.Source, e.Points, e.Duration, e.Query)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
