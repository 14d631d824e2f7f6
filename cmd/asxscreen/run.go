package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	wc := defaultWireConfig()
	var dateStr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one overnight screening pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			runDate := time.Now()
			if dateStr != "" {
				parsed, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", dateStr, err)
				}
				runDate = parsed
			}

			orch, statusServer, _, err := build(wc, log.Logger)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if statusServer != nil {
				go func() {
					if err := statusServer.Start(); err != nil {
						log.Error().Err(err).Msg("status server stopped")
					}
				}()
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					_ = statusServer.Shutdown(shutdownCtx)
				}()
			}

			code, runErr := orch.Run(ctx, runDate)
			if runErr != nil {
				log.Warn().Err(runErr).Int("exit_code", code).Msg("run finished with a non-success outcome")
			}
			cmdExitCode = code
			return nil
		},
	}

	cmd.Flags().StringVar(&wc.SectorsPath, "sectors", wc.SectorsPath, "Path to sectors.json")
	cmd.Flags().StringVar(&wc.CalendarPath, "calendar", wc.CalendarPath, "Path to event_calendar.csv")
	cmd.Flags().StringVar(&wc.RunConfigPath, "config", wc.RunConfigPath, "Path to run.yaml")
	cmd.Flags().StringVar(&wc.ProvidersPath, "providers", wc.ProvidersPath, "Path to providers.yaml")
	cmd.Flags().StringVar(&wc.LSTMSidecarPath, "lstm-sidecar", "", "Optional path to LSTM prediction sidecar JSON")
	cmd.Flags().StringVar(&wc.OutputRoot, "out", wc.OutputRoot, "Output root directory for run artifacts")
	cmd.Flags().StringVar(&dateStr, "date", "", "Run date (YYYY-MM-DD), defaults to today")

	return cmd
}

// cmdExitCode carries the orchestrator's exit code out of RunE, since
// cobra itself only distinguishes error/no-error. main checks it after
// Execute returns.
var cmdExitCode int
