package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikoiii/booking-futsal/internal/api"
	"github.com/ikoiii/booking-futsal/internal/auth"
	"github.com/ikoiii/booking-futsal/internal/config"
	"github.com/ikoiii/booking-futsal/internal/database"
	"github.com/ikoiii/booking-futsal/internal/domain"
	"github.com/ikoiii/booking-futsal/internal/events"
	"github.com/ikoiii/booking-futsal/internal/google"
	"github.com/ikoiii/booking-futsal/internal/logging"
	"github.com/ikoiii/booking-futsal/internal/metrics"
	"github.com/ikoiii/booking-futsal/internal/notify"
	"github.com/ikoiii/booking-futsal/internal/repository"
	"github.com/ikoiii/booking-futsal/internal/service"
	"github.com/ikoiii/booking-futsal/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database, &logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	bus := events.NewEventBus()
	bus.Subscribe(events.AllEvents, metrics.HandleEvent)
	outbox, closeSinks := initOutbox(ctx, cfg, db, redisClient, &logger)
	defer closeSinks()
	outbox.Subscribe(bus)
	go outbox.Start(ctx)

	svc := api.Services{
		Users:     service.NewUserService(db, initSessions(redisClient, &logger), auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), cfg.Auth, &logger),
		Bookings:  service.NewBookingService(db, db, bus, cfg.Booking, &logger),
		Lapangans: service.NewLapanganService(db),
		Reviews:   service.NewReviewService(db, db, bus, &logger),
		Stats:     service.NewStatsService(db),
	}

	ready := map[string]api.ReadinessCheck{"database": db.PingContext}
	if redisClient != nil {
		ready["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	httpServer := api.NewHTTPServer(cfg.API, cfg.Auth, svc, ready, &logger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, api.NewAvailabilityService(svc.Bookings, svc.Lapangans), &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	startMetrics(ctx, cfg, &logger)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initSessions prefers Redis and keeps an in-process store for when it drops out.
func initSessions(redisClient *redis.Client, logger *zerolog.Logger) domain.SessionStore {
	memory := repository.NewMemorySessionStore()
	if redisClient == nil {
		logger.Warn().Msg("sessions and login throttling are kept in memory")
		return memory
	}
	return repository.NewFailoverSessionStore(repository.NewRedisSessionStore(redisClient), memory, logger)
}

// initOutbox builds the worker with every sink that is configured. The returned
// func releases sink connections.
func initOutbox(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) (*worker.OutboxWorker, func()) {
	var (
		sinks   []worker.Sink
		closers []io.Closer
	)

	if cfg.Events.AMQPURL != "" {
		publisher := notify.NewAMQPPublisher(cfg.Events, logger)
		sinks = append(sinks, publisher)
		closers = append(closers, publisher)
		logger.Info().Str("exchange", cfg.Events.Exchange).Msg("amqp sink enabled")
	}

	if cfg.Telegram.BotToken != "" && len(cfg.Telegram.AdminChatIDs) > 0 {
		bot, err := notify.NewTelegramBot(cfg.Telegram.BotToken, cfg.Telegram.Debug)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, continuing without admin notifications")
		} else {
			sinks = append(sinks, notify.NewTelegramNotifier(bot, cfg.Telegram.AdminChatIDs, logger))
			logger.Info().Int("chats", len(cfg.Telegram.AdminChatIDs)).Msg("telegram sink enabled")
		}
	}

	if mirror := initGoogleSheets(ctx, cfg, logger); mirror != nil {
		sinks = append(sinks, mirror)
	}

	w := worker.NewOutboxWorker(db, redisClient, cfg.Worker, logger, sinks...)
	return w, func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsMirror {
	if cfg.Google.CredentialsFile == "" || cfg.Google.BookingsSpreadsheetID == "" {
		return nil
	}

	mirror, err := google.NewSheetsMirror(ctx, cfg.Google.CredentialsFile, cfg.Google.BookingsSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := mirror.EnsureHeader(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets header check failed")
	}
	if err := mirror.WarmUpCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets cache warm-up failed")
	}

	logger.Info().Msg("google sheets connected")
	return mirror
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	if cfg.API.HTTP.Enabled {
		go func() {
			if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	logger.Info().
		Bool("grpc_enabled", grpcServer != nil).
		Int("http_port", cfg.API.HTTP.Port).
		Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
