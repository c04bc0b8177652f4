package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"health-chatbot/internal/agent"
	"health-chatbot/internal/auth"
	"health-chatbot/internal/config"
	"health-chatbot/internal/consultation"
	"health-chatbot/internal/events"
	"health-chatbot/internal/metrics"
	"health-chatbot/internal/platform/database"
	"health-chatbot/internal/platform/logging"
	"health-chatbot/internal/platform/telegram"
	"health-chatbot/internal/report"
	"health-chatbot/internal/server"
	"health-chatbot/internal/upload"
	"health-chatbot/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	// 1. Infrastructure
	db, err := database.Open(ctx, database.Driver(cfg.Database.Driver), cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.WithField("driver", cfg.Database.Driver).Info("connected to database")

	if err := metrics.RegisterDB(db, cfg.Database.Driver); err != nil {
		logger.WithError(err).Warn("database pool metrics unavailable")
	}

	store, err := newUploadStore(ctx, cfg)
	if err != nil {
		return err
	}

	var publisher consultation.Publisher = events.NoopPublisher{}
	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		kp := events.NewKafkaPublisher(brokers, cfg.Kafka.Topic)
		defer kp.Close()
		publisher = kp
		logger.WithField("topic", cfg.Kafka.Topic).Info("publishing consultation events to kafka")
	}

	// 2. Clients
	var tgClient report.TelegramClient
	if cfg.TelegramEnabled() {
		tgClient = telegram.NewClient(cfg.Telegram.BotToken)
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN or DOCTOR_CHAT_ID not set; doctor alerts disabled")
	}
	reportSvc := report.NewService(tgClient, cfg.Telegram.DoctorChatID, logger)

	// 3. Services
	var (
		userRepo         user.Repository
		consultationRepo consultation.Repository
	)
	switch database.Driver(cfg.Database.Driver) {
	case database.SQLite:
		userRepo = user.NewSQLiteRepository(db)
		consultationRepo = consultation.NewSQLiteRepository(db)
	default:
		userRepo = user.NewPostgresRepository(db)
		consultationRepo = consultation.NewPostgresRepository(db)
	}

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userSvc, err := user.NewService(userRepo, issuer, cfg.Auth.BcryptCost, logger)
	if err != nil {
		return err
	}

	opts := []consultation.Option{consultation.WithPublisher(publisher)}
	if cfg.TelegramEnabled() {
		opts = append(opts, consultation.WithReportService(reportSvc))
	}
	consultationSvc := consultation.NewService(consultationRepo, agent.NewRandomEngine(), store, logger, opts...)

	// 4. Router
	router := server.NewRouter(server.Deps{
		Logger:       logger,
		DB:           db,
		Issuer:       issuer,
		Users:        user.NewHandler(userSvc, logger),
		Consultation: consultation.NewHandler(consultationSvc, userSvc, reportSvc, cfg.Upload.MaxBytes, logger),
		Uploads:      upload.NewHandler(store, logger),
		CORSOrigin:   cfg.Server.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newUploadStore(ctx context.Context, cfg *config.Config) (upload.Store, error) {
	if cfg.Upload.Backend == "minio" {
		return upload.NewMinioStore(ctx, upload.MinioConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
	}
	return upload.NewLocalStore(cfg.Upload.Dir), nil
}
