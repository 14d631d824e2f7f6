package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/asxscreen/internal/cache"
	"github.com/sawpanic/asxscreen/internal/config"
	"github.com/sawpanic/asxscreen/internal/eventguard"
	"github.com/sawpanic/asxscreen/internal/history"
	"github.com/sawpanic/asxscreen/internal/httpapi"
	"github.com/sawpanic/asxscreen/internal/marketdata"
	"github.com/sawpanic/asxscreen/internal/metrics"
	"github.com/sawpanic/asxscreen/internal/notify"
	"github.com/sawpanic/asxscreen/internal/orchestrator"
	"github.com/sawpanic/asxscreen/internal/predictor"
	"github.com/sawpanic/asxscreen/internal/progress"
	"github.com/sawpanic/asxscreen/internal/scanner"
	"github.com/sawpanic/asxscreen/internal/scorer"
	"github.com/sawpanic/asxscreen/internal/sentiment"
	"github.com/sawpanic/asxscreen/internal/spimonitor"
)

// wireConfig groups every path the CLI accepts. The defaults are relative
// paths (config/... and out), resolved against the working directory.
type wireConfig struct {
	SectorsPath     string
	CalendarPath    string
	RunConfigPath   string
	ProvidersPath   string
	LSTMSidecarPath string
	OutputRoot      string
}

func defaultWireConfig() wireConfig {
	return wireConfig{
		SectorsPath:   "config/sectors.json",
		CalendarPath:  "config/event_calendar.csv",
		RunConfigPath: "config/run.yaml",
		ProvidersPath: "config/providers.yaml",
		OutputRoot:    "out",
	}
}

// build assembles every component and returns a ready-to-run Orchestrator
// plus the optional status server, so callers (run/schedule subcommands)
// never touch individual component constructors.
func build(wc wireConfig, log zerolog.Logger) (*orchestrator.Orchestrator, *httpapi.Server, *metrics.Registry, error) {
	runCfg, err := config.LoadRunConfig(wc.RunConfigPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load run config: %w", err)
	}

	universe, err := config.LoadSectors(wc.SectorsPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load sectors: %w", err)
	}

	providersCfg, err := config.LoadProvidersConfig(wc.ProvidersPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load providers config: %w", err)
	}

	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load market timezone: %w", err)
	}

	calendar, err := config.LoadCalendar(wc.CalendarPath, loc)
	if err != nil {
		log.Warn().Err(err).Msg("event calendar unavailable, continuing without calendar events")
		calendar = nil
	}

	metricsRegistry := metrics.NewRegistry()

	primary := marketdata.NewHTTPChartProvider(marketdata.HTTPChartProviderConfig{
		Name:      "primary",
		BaseURL:   providersCfg.Providers["primary"].BaseURL,
		Timeout:   providerTimeout(providersCfg.Providers["primary"].TimeoutSeconds, runCfg.Adapter.TimeoutSeconds),
		UserAgent: providersCfg.Global.UserAgent,
	})
	fallback := marketdata.NewHTTPChartProvider(marketdata.HTTPChartProviderConfig{
		Name:      "fallback",
		BaseURL:   providersCfg.Providers["fallback"].BaseURL,
		Timeout:   providerTimeout(providersCfg.Providers["fallback"].TimeoutSeconds, runCfg.Adapter.TimeoutSeconds),
		UserAgent: providersCfg.Global.UserAgent,
	})

	adapterCfg := marketdata.Config{
		PrimaryDelaySeconds:   runCfg.Adapter.PrimaryDelaySeconds,
		IndexDelaySeconds:     runCfg.Adapter.IndexDelaySeconds,
		TimeoutSeconds:        runCfg.Adapter.TimeoutSeconds,
		FallbackCoolingStreak: runCfg.Adapter.FallbackCoolingStreak,
		MaxWorkers:            runCfg.Scanner.MaxWorkers,
		CacheTTL:              10 * time.Minute,
	}
	adapter := marketdata.NewAdapter(primary, fallback, nil, adapterCfg, cache.NewAuto(), log)
	adapter.SetMetrics(metricsRegistry.ProviderReqs, metricsRegistry.FallbackActive)

	sentimentProvider := sentiment.NewCachedProvider(sentiment.NewHTTPProvider("https://news-sentiment.example", 10*time.Second))

	scan := scanner.New(adapter, runCfg.Scanner, log)
	spi := spimonitor.New(adapter, log)
	guard := eventguard.New(adapter, sentimentProvider, calendar, nil, runCfg.EventGuard, loc, log)
	pred := predictor.New(adapter, sentimentProvider, runCfg.Ensemble.Weights, wc.LSTMSidecarPath, log)
	score := scorer.New()

	notifier := notify.New(notify.Config{
		WebhookURL: runCfg.Notify.WebhookURL,
		SMTP: notify.SMTPConfig{
			Host: runCfg.Notify.SMTP.Host, Port: runCfg.Notify.SMTP.Port,
			Username: runCfg.Notify.SMTP.Username, Password: runCfg.Notify.SMTP.Password,
			From: runCfg.Notify.SMTP.From, To: runCfg.Notify.SMTP.To,
		},
	}, log)

	historyStore, err := history.New(history.Config{
		Enabled: runCfg.History.Enabled, DSN: runCfg.History.DSN, QueryTimeout: history.DefaultConfig().QueryTimeout,
	}, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init history store: %w", err)
	}

	progressBus := progress.NewBus(log)

	orch := orchestrator.New(orchestrator.Deps{
		Universe:   universe,
		Scanner:    scan,
		SPIMonitor: spi,
		EventGuard: guard,
		Predictor:  pred,
		Scorer:     score,
		Notifier:   notifier,
		History:    historyStore,
		Metrics:    metricsRegistry,
		Progress:   progressBus,
		OutputRoot: wc.OutputRoot,
		RunLimits:  runCfg.Run,
		Log:        log,
	})

	var statusServer *httpapi.Server
	if runCfg.StatusAPI.Enabled {
		statusServer = httpapi.New(runCfg.StatusAPI.Addr, orch, log)
		statusServer.Router().HandleFunc("/progress", progressBus.Handler)
	}

	return orch, statusServer, metricsRegistry, nil
}

// providerTimeout prefers the per-provider override from providers.yaml
// and falls back to run.yaml's adapter-wide timeout when unset.
func providerTimeout(overrideSeconds, fallbackSeconds float64) time.Duration {
	if overrideSeconds > 0 {
		return time.Duration(overrideSeconds * float64(time.Second))
	}
	return time.Duration(fallbackSeconds * float64(time.Second))
}
