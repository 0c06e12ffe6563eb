package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"bottega/config"
	"bottega/internal/database"
	"bottega/internal/domain"
	"bottega/internal/repository"
	"bottega/internal/router"
	"bottega/pkg/chatbot"
	"bottega/pkg/courier"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	settingRepo := repository.NewSettingRepository(db)
	if err := settingRepo.SeedDefaults(map[string]string{
		domain.SettingReferralRewardCents:   strconv.Itoa(500),
		domain.SettingReferralDiscountPct:   strconv.Itoa(10),
		domain.SettingGiftCardExpiryMonths:  strconv.Itoa(12),
		domain.SettingDispatchMinAgeMinutes: strconv.Itoa(15),
	}); err != nil {
		log.Fatal().Err(err).Msg("seeding settings failed")
	}

	var provider courier.Provider
	if cfg.Courier.APIKey != "" {
		provider = courier.NewParcellineProvider(cfg.Courier.BaseURL, cfg.Courier.APIKey, cfg.Courier.RequestTimeout)
	} else {
		log.Warn().Msg("no courier api key configured, using stub provider")
		provider = &courier.StubProvider{}
	}
	var bot chatbot.Sender = chatbot.NopSender{}
	if cfg.ChatBot.Token != "" {
		bot = chatbot.NewTelegramSender(cfg.ChatBot.BaseURL, cfg.ChatBot.Token, cfg.ChatBot.ChatID)
	}

	engine, dispatchSvc := router.Setup(cfg, db, provider, bot)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	dispatchSvc.StartWorker(workerCtx, cfg.Courier.WorkerInterval)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	stopWorker()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Server.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
