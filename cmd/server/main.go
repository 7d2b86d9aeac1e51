package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hans-clinic/appointment-system/internal/api"
	"github.com/hans-clinic/appointment-system/internal/core/domain"
	"github.com/hans-clinic/appointment-system/internal/core/ports"
	"github.com/hans-clinic/appointment-system/internal/core/service"
	mongodb "github.com/hans-clinic/appointment-system/internal/infrastructure/db/mongo"
	redisdb "github.com/hans-clinic/appointment-system/internal/infrastructure/db/redis"
	"github.com/hans-clinic/appointment-system/internal/infrastructure/notify"
	"github.com/hans-clinic/appointment-system/internal/infrastructure/poller"
	"github.com/hans-clinic/appointment-system/internal/infrastructure/queue"
	"github.com/hans-clinic/appointment-system/internal/pkg/config"
	"github.com/hans-clinic/appointment-system/pkg/logger"
)

const tokenTTL = 24 * time.Hour

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect")
	}
	defer func() {
		_ = rdb.Close()
	}()

	userRepo := mongodb.NewUserRepository(db)
	apptRepo := mongodb.NewAppointmentRepository(db)
	notifRepo := mongodb.NewNotificationRepository(db)

	for name, ensure := range map[string]func(context.Context) error{
		"users":         userRepo.EnsureIndexes,
		"appointments":  apptRepo.EnsureIndexes,
		"notifications": notifRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Str("collection", name).Msg("ensure indexes")
		}
	}

	// --- Notification pipeline ---
	clock := ports.SystemClock{}

	sender := notify.NewInstrumentedSender(
		notify.NewCompositeSender().
			Register(domain.ChannelEmail, notify.NewEmailSender(notify.SMTPConfig{
				Host:     cfg.SMTP.Host,
				Port:     cfg.SMTP.Port,
				Username: cfg.SMTP.Username,
				Password: cfg.SMTP.Password,
				From:     cfg.SMTP.From,
			}, log)).
			Register(domain.ChannelSMS, notify.NewSMSSender(notify.TwilioConfig{
				AccountSID: cfg.Twilio.AccountSID,
				AuthToken:  cfg.Twilio.AuthToken,
				From:       cfg.Twilio.From,
			}, log)).
			Register(domain.ChannelPush, notify.NewPushSender(notify.PushConfig{
				WebhookURL: cfg.Push.WebhookURL,
			}, log)),
	)

	notifService := service.NewNotificationService(notifRepo, userRepo, sender, clock, cfg.Dispatch.MaxRetries, log)

	guard := redisdb.NewScheduleGuard(rdb, 0)
	dispatcher := queue.NewDispatcher(queue.Config{
		Workers:      cfg.Dispatch.Workers,
		ReminderLead: cfg.Dispatch.ReminderLead,
	}, notifService, guard, clock, log)
	dispatcher.Start(ctx)

	deliveryPoller := poller.New(notifRepo, notifService, clock, poller.Config{
		Interval:   cfg.Dispatch.PollInterval,
		BatchSize:  cfg.Dispatch.BatchSize,
		MaxRetries: cfg.Dispatch.MaxRetries,
	}, log)
	deliveryPoller.Start(ctx)

	// --- Services and HTTP surface ---
	apptService := service.NewAppointmentService(apptRepo, userRepo, dispatcher, clock, log)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, tokenTTL, clock)

	e := api.NewRouter(api.RouterDeps{
		Appointments:  apptService,
		Notifications: notifService,
		Auth:          authService,
		Mongo:         db,
		Redis:         rdb,
		JWTSecret:     cfg.JWTSecret,
		Logger:        log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
		os.Exit(1)
	}
}
