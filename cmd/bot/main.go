package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/VizardWorker/anonrelay/internal/config"
	"github.com/VizardWorker/anonrelay/internal/database/boltstore"
	"github.com/VizardWorker/anonrelay/internal/metrics"
	"github.com/VizardWorker/anonrelay/internal/moderation"
	"github.com/VizardWorker/anonrelay/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Configure zerolog
	switch cfg.LogLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Pretty console logging in development, JSON in production
	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	log.Info().Msg("Starting anonymous relay bot")

	opts := boltstore.DefaultOptions()
	opts.Path = cfg.DBPath
	store, err := boltstore.Open(opts)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open database")
	}
	defer store.Close()

	log.Info().Str("path", cfg.DBPath).Msg("Database opened")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}
	log.Info().Str("username", api.Self.UserName).Msg("Authorized on Telegram")

	svc := moderation.NewService(store, telegram.NewNotifier(api))
	if err := svc.EnsureAdmin(ctx, cfg.SeedAdminID); err != nil {
		log.Fatal().Err(err).Int64("admin", cfg.SeedAdminID).Msg("Failed to seed admin")
	}

	// Periodic gauges are fed straight from the store
	metrics.StartCollector(ctx, metrics.StatsSource{
		BlockedUserCount: func() int {
			bans, err := store.ListBans(ctx)
			if err != nil {
				return 0
			}
			return len(bans)
		},
		AdminCount: func() int {
			admins, err := store.ListAdmins(ctx)
			if err != nil {
				return 0
			}
			return len(admins)
		},
		PendingReportCount: func() int {
			reports, err := store.ListReported(ctx)
			if err != nil {
				return 0
			}
			return len(reports)
		},
	}, 30*time.Second)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Info().Str("addr", cfg.MetricsAddr).Msg("Metrics listener started")
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Error().Err(err).Msg("Metrics listener failed")
			}
		}()
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	bot := telegram.New(api, svc, api.Self.UserName)
	if err := bot.Run(ctx, api.GetUpdatesChan(u)); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Update loop failed")
	}

	log.Info().Msg("Shutting down")
}
