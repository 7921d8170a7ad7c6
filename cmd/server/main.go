// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unclebandit/leadgen-backend/internal/cache"
	"github.com/unclebandit/leadgen-backend/internal/config"
	"github.com/unclebandit/leadgen-backend/internal/controller"
	"github.com/unclebandit/leadgen-backend/internal/db"
	"github.com/unclebandit/leadgen-backend/internal/handler"
	"github.com/unclebandit/leadgen-backend/internal/queue"
	"github.com/unclebandit/leadgen-backend/internal/realtime"
	"github.com/unclebandit/leadgen-backend/internal/repository"
	"github.com/unclebandit/leadgen-backend/internal/service"
	"github.com/unclebandit/leadgen-backend/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := db.RunMigrations(ctx, database); err != nil {
		return err
	}

	campaignRepo := &repository.CampaignRepository{DB: database}
	leadRepo := &repository.LeadRepository{DB: database}
	eventRepo := &repository.EventRepository{DB: database}
	userRepo := &repository.UserRepository{DB: database}
	sessionRepo := &repository.SessionRepository{DB: database}
	fileRepo := &repository.FileRepository{DB: database}
	statsRepo := &repository.StatsRepository{DB: database}

	q := queue.NewInMemoryQueue()
	defer q.Close()

	hub := realtime.NewHub(cfg.AllowedOrigins)
	defer hub.Close()
	if err := queue.StartBroadcastSubscriber(q, hub); err != nil {
		return err
	}

	if cfg.AMQPURL != "" {
		publisher, err := queue.DialAMQP(cfg.AMQPURL, cfg.AMQPEventsQueue)
		if err != nil {
			return err
		}
		defer publisher.Close()
		if err := queue.StartRelaySubscriber(q, publisher); err != nil {
			return err
		}
		slog.Info("relaying campaign events to rabbitmq", "queue", cfg.AMQPEventsQueue)
	}

	authService := &service.AuthService{
		Users:    userRepo,
		Sessions: sessionRepo,
		Secret:   cfg.SessionSecret,
		TTL:      cfg.SessionTTL,
	}
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, sessions will be read from postgres", "error", err)
		}
		authService.Cache = cache.NewRedisSessionCache(client)
	}

	var store storage.BlobStore
	switch cfg.FileStorage {
	case "s3":
		s3Store, err := storage.NewS3Store(ctx, cfg.AWSRegion, cfg.AWSEndpointURL, cfg.S3Bucket)
		if err != nil {
			return err
		}
		store = s3Store
	default:
		store = &storage.LocalStore{Root: cfg.UploadDir}
	}

	sim := service.NewSimulator(ctx, campaignRepo, leadRepo, q, cfg.ScrapeTick, nil)

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		EventRepo:    eventRepo,
		Simulator:    sim,
		Queue:        q,
	}
	leadService := &service.LeadService{LeadRepo: leadRepo, CampaignRepo: campaignRepo}
	fileService := &service.FileService{FileRepo: fileRepo, Store: store}
	statsService := &service.StatsService{StatsRepo: statsRepo}

	router := handler.NewRouter(handler.Deps{
		Campaigns: &controller.CampaignController{CampaignService: campaignService},
		Leads:     &controller.LeadController{LeadService: leadService},
		Files:     &controller.FileController{FileService: fileService, MaxUploadBytes: cfg.MaxUploadBytes},
		Stats:     &controller.StatsController{StatsService: statsService},
		Auth: &controller.AuthController{
			AuthService:   authService,
			DevLogin:      cfg.DevLogin,
			SecureCookies: !cfg.DevLogin,
		},
		Authenticator:  authService,
		Realtime:       http.HandlerFunc(hub.ServeWS),
		DB:             database,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	go authService.RunSweeper(ctx, time.Hour)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "file_storage", cfg.FileStorage, "dev_login", cfg.DevLogin)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
	stop()
	sim.Wait()
	slog.Info("server stopped")
	return nil
}
