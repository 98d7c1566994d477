package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/toylibrary/lending-platform/internal/api"
	"github.com/toylibrary/lending-platform/internal/core/service"
	mongostore "github.com/toylibrary/lending-platform/internal/infrastructure/db/mongo"
	redisstore "github.com/toylibrary/lending-platform/internal/infrastructure/db/redis"
	"github.com/toylibrary/lending-platform/internal/infrastructure/notify"
	"github.com/toylibrary/lending-platform/internal/infrastructure/storage"
	"github.com/toylibrary/lending-platform/internal/pkg/config"
	"github.com/toylibrary/lending-platform/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	client, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Repositories ---
	userRepo := mongostore.NewUserRepository(db)
	itemRepo := mongostore.NewItemRepository(db)
	loanRepo := mongostore.NewLoanRepository(db)
	reservationRepo := mongostore.NewReservationRepository(db)
	memberRepo := mongostore.NewMemberRepository(db)
	tierRepo := mongostore.NewTierRepository(db)
	libraryRepo := mongostore.NewLibraryRepository(db)
	messageRepo := mongostore.NewMessageRepository(db)
	settingsRepo := mongostore.NewSettingsRepository(db)
	notificationRepo := mongostore.NewNotificationRepository(db)
	circulationRepo := mongostore.NewCirculationRepository(client, db)

	// --- Notification relay ---
	var publisher notify.Publisher
	if cfg.AMQP.Enabled {
		amqpPub, err := notify.NewAMQPPublisher(notify.AMQPConfig{
			URL:          cfg.AMQP.URL,
			QueueDurable: cfg.AMQP.QueueDurable,
		})
		if err != nil {
			return fmt.Errorf("amqp connect: %w", err)
		}
		defer amqpPub.Close()
		publisher = amqpPub
	}
	dispatcher := notify.NewDispatcher(cfg.Workers, notificationRepo, publisher, log)
	dispatcher.Start(ctx)

	// --- Object storage ---
	var images service.ImageStore
	if cfg.Minio.Enabled {
		store, err := storage.NewMinioStore(storage.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("minio connect: %w", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("minio bucket: %w", err)
		}
		images = store
	}

	// --- Services ---
	authService := service.NewAuthService(userRepo, libraryRepo, settingsRepo, dispatcher, cfg.JWTSecret, cfg.TokenTTL, log)
	inventoryService := service.NewInventoryService(itemRepo, reservationRepo, images, dispatcher, log)
	circulationService := service.NewCirculationService(
		itemRepo, loanRepo, reservationRepo, memberRepo, tierRepo, settingsRepo,
		circulationRepo, dispatcher, redisstore.NewCheckoutDeduper(rdb), log,
	)
	membershipService := service.NewMembershipService(memberRepo, tierRepo, userRepo, loanRepo, dispatcher, log)
	libraryService := service.NewLibraryService(libraryRepo, settingsRepo, redisstore.NewFavoritesStore(rdb), dispatcher, log)
	messagingService := service.NewMessagingService(messageRepo, userRepo, dispatcher, log)
	reportService := service.NewReportService(itemRepo, loanRepo, reservationRepo, memberRepo, libraryRepo, userRepo, log)

	// --- HTTP server ---
	e := api.NewRouter(api.Dependencies{
		Auth:          authService,
		Inventory:     inventoryService,
		Circulation:   circulationService,
		Membership:    membershipService,
		Libraries:     libraryService,
		Messaging:     messagingService,
		Reports:       reportService,
		Notifications: notificationRepo,
		Mongo:         db,
		Redis:         rdb,
		JWTSecret:     cfg.JWTSecret,
		Logger:        log,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
