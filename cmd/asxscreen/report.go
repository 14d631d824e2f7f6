package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	wc := defaultWireConfig()
	var dateStr string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the artifact paths for a completed run",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if dateStr != "" {
				parsed, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", dateStr, err)
				}
				day = parsed
			}

			runDir := filepath.Join(wc.OutputRoot, day.Format("2006-01-02"))
			paths := []string{
				filepath.Join(runDir, "morning_report.html"),
				filepath.Join(runDir, "full_results.csv"),
				filepath.Join(runDir, "event_risk_summary.csv"),
			}

			found := false
			for _, p := range paths {
				if _, err := os.Stat(p); err == nil {
					fmt.Println(p)
					found = true
				}
			}
			if !found {
				return fmt.Errorf("no report artifacts found under %s — has `asxscreen run --date %s` completed?", runDir, day.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&wc.OutputRoot, "out", wc.OutputRoot, "Output root directory for run artifacts")
	cmd.Flags().StringVar(&dateStr, "date", "", "Run date (YYYY-MM-DD), defaults to today")
	return cmd
}
