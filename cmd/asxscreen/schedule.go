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

// newScheduleCmd runs the screen once a day at a fixed local time, looping
// until the process is signaled. Grounded on the teacher's
// src/infrastructure/data/streams.go ticker loop, generalized from a
// fixed-interval poll to a daily wake time.
func newScheduleCmd() *cobra.Command {
	wc := defaultWireConfig()
	var at string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the screen every night at a fixed local time",
		RunE: func(cmd *cobra.Command, args []string) error {
			wakeHour, wakeMin, err := parseClock(at)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			for {
				next := nextOccurrence(time.Now(), wakeHour, wakeMin)
				log.Info().Time("next_run", next).Msg("waiting for next scheduled run")

				timer := time.NewTimer(time.Until(next))
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil
				case <-timer.C:
				}

				orch, statusServer, _, err := build(wc, log.Logger)
				if err != nil {
					log.Error().Err(err).Msg("wiring failed, skipping tonight's run")
					continue
				}
				if statusServer != nil {
					go func() {
						if err := statusServer.Start(); err != nil {
							log.Error().Err(err).Msg("status server stopped")
						}
					}()
				}

				code, runErr := orch.Run(ctx, time.Now())
				if runErr != nil {
					log.Warn().Err(runErr).Int("exit_code", code).Msg("scheduled run finished with a non-success outcome")
				}
				if statusServer != nil {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					_ = statusServer.Shutdown(shutdownCtx)
					shutdownCancel()
				}
			}
		},
	}

	cmd.Flags().StringVar(&wc.SectorsPath, "sectors", wc.SectorsPath, "Path to sectors.json")
	cmd.Flags().StringVar(&wc.CalendarPath, "calendar", wc.CalendarPath, "Path to event_calendar.csv")
	cmd.Flags().StringVar(&wc.RunConfigPath, "config", wc.RunConfigPath, "Path to run.yaml")
	cmd.Flags().StringVar(&wc.ProvidersPath, "providers", wc.ProvidersPath, "Path to providers.yaml")
	cmd.Flags().StringVar(&wc.LSTMSidecarPath, "lstm-sidecar", "", "Optional path to LSTM prediction sidecar JSON")
	cmd.Flags().StringVar(&wc.OutputRoot, "out", wc.OutputRoot, "Output root directory for run artifacts")
	cmd.Flags().StringVar(&at, "at", "20:15", "Local time (HH:MM, Australia/Sydney) to start each night's run")

	return cmd
}

func parseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --at %q, expected HH:MM: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

func nextOccurrence(from time.Time, hour, minute int) time.Time {
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		loc = from.Location()
	}
	from = from.In(loc)
	candidate := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, loc)
	if !candidate.After(from) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
