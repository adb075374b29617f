package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"avocadoanalytics/internal/snapshot"
)

func newSnapshotCmd(opts *rootOptions) *cobra.Command {
	var (
		capture snapshot.Options
		out     string
	)

	cmd := &cobra.Command{
		Use:     "snapshot",
		Short:   "Save a PNG of a running dashboard using headless Chrome",
		Example: `  avocadoctl snapshot --url http://localhost:8050 --out dashboard.png`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			capture.Logger = opts.logger

			png, err := snapshot.Capture(cmd.Context(), capture)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, png, 0644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "saved %s (%d bytes)\n", out, len(png))
			return nil
		},
	}

	cmd.Flags().StringVar(&capture.URL, "url", "http://localhost:8050", "dashboard address")
	cmd.Flags().StringVarP(&out, "out", "o", "dashboard.png", "output PNG file")
	cmd.Flags().DurationVar(&capture.Wait, "wait", snapshot.DefaultWait, "extra settle time after the charts are drawn")
	cmd.Flags().DurationVar(&capture.Timeout, "timeout", snapshot.DefaultTimeout, "overall capture timeout")
	cmd.Flags().IntVar(&capture.Width, "width", snapshot.DefaultWidth, "viewport width")
	cmd.Flags().IntVar(&capture.Height, "height", snapshot.DefaultHeight, "viewport height")
	cmd.Flags().BoolVar(&capture.Headful, "headful", false, "show the browser window")
	return cmd
}
