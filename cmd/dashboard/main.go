package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketPulse/internal/collector"
	"MarketPulse/internal/config"
	"MarketPulse/internal/dashboard"
	"MarketPulse/internal/logger"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/recorder"
	"MarketPulse/internal/scheduler"
	"MarketPulse/internal/server"
)

func main() {
	cfgPath := configPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot := logger.New(logger.Config{})
		boot.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)
	log.Info().Str("config", cfgPath).Msg("MarketPulse starting")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	fetcher := collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.Timeout)
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")
	col := collector.NewCollector(fetcher, cfg.Instruments, cfg.Derived, log)

	// Session store
	var rec recorder.Recorder
	sr, err := recorder.NewSQLiteRecorder(log)
	if err != nil {
		log.Warn().Err(err).Msg("init session store failed, using noop")
		rec = recorder.NewNoopRecorder()
	} else {
		rec = sr
	}
	defer rec.Close()

	svc := dashboard.NewService(cfg, col, rec, log)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telegram watch job and commands
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sched := scheduler.NewScheduler(ctx, svc, tn, log)
		if cfg.Schedule.WatchCron != "" {
			if err := sched.Register(cfg.Schedule.WatchCron); err != nil {
				log.Fatal().Err(err).Msg("register watch task")
			}
			sched.Start()
			defer sched.Stop()
		}
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Str("watch_cron", cfg.Schedule.WatchCron).Msg("telegram enabled")
	} else {
		log.Info().Msg("telegram disabled, no bot token or chat id")
	}

	srv := server.New(server.Config{
		Port:      cfg.Server.Port,
		Log:       log,
		Dashboard: svc,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("start server")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("MarketPulse stopped")
}

const defaultConfigPath = "configs/config.yaml"

// configPath returns CONFIG_PATH or the default location.
func configPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return defaultConfigPath
}
