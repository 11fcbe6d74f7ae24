package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/config"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/delivery/http/handler"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/delivery/http/middleware"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/observability"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/cache"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/database"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/logging"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/queue"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/storage"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/repository/postgres"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/service"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		log.WithError(err).Fatal("could not connect to database")
	}
	defer db.Close()
	if err := database.InitSchema(ctx, db, log); err != nil {
		log.WithError(err).Fatal("could not initialize schema")
	}

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()

	// Redis, RabbitMQ and MinIO are optional: without them the API runs with
	// uncached statistics, no report events and no image uploads.
	var (
		statsCache cache.StatsCache = cache.NoopStatsCache{}
		locker     cache.Locker     = cache.NewLocalLocker()
		rdb        *redis.Client
	)
	if cfg.RedisAddress != "" {
		rdb, err = cache.NewRedisClient(ctx, cfg.RedisAddress)
		if err != nil {
			log.WithError(err).Warn("could not connect to redis, statistics cache disabled")
		} else {
			defer rdb.Close()
			statsCache = cache.NewRedisStatsCache(rdb, cfg.StatsCacheTTL)
			locker = cache.NewRedisLocker(rdb)
		}
	}

	var publisher queue.Publisher
	var consumer queue.Consumer
	if cfg.RabbitMQURL != "" {
		publisher, err = queue.NewRabbitPublisher(cfg.RabbitMQURL, cfg.ReportEventsQueue)
		if err != nil {
			log.WithError(err).Warn("could not connect to RabbitMQ, report events disabled")
			publisher = nil
		} else {
			defer publisher.Close()
		}
		consumer, err = queue.NewRabbitConsumer(cfg.RabbitMQURL, log, cfg.ReportEventsQueue)
		if err != nil {
			log.WithError(err).Warn("could not connect RabbitMQ consumer, area assignment disabled")
			consumer = nil
		} else {
			defer consumer.Close()
		}
	}

	var storageService service.StorageService
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
		if err != nil {
			log.WithError(err).Warn("could not create MinIO client, uploads disabled")
		} else {
			storageService = service.NewStorageService(store, cfg.MinioBucket, clock)
			if err := storageService.Initialize(ctx); err != nil {
				log.WithError(err).Warn("could not initialize storage bucket")
			}
		}
	}

	userRepo := postgres.NewUserRepository(db)
	reportRepo := postgres.NewReportRepository(db)
	assetRepo := postgres.NewAssetRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	areaRepo := postgres.NewAreaRepository(db)
	locationRepo := postgres.NewLocationRepository(db)
	historicalRepo := postgres.NewHistoricalRepository(db)
	geometryValidator := postgres.NewGeometryValidator(db)

	var google service.GoogleVerifier
	if cfg.GoogleClientID != "" {
		google = service.NewGoogleVerifier(cfg.GoogleClientID)
	}
	authService := service.NewAuthService(userRepo, google, service.AuthConfig{
		Secret:      []byte(cfg.JWTSecret),
		TTL:         cfg.JWTExpiration,
		PhoneRegion: cfg.DefaultPhoneRegion,
	}, clock, log)

	reportService := service.NewReportService(service.ReportDeps{
		Reports:     reportRepo,
		Assets:      assetRepo,
		Events:      eventRepo,
		Areas:       areaRepo,
		Cache:       statsCache,
		Publisher:   service.NewReportEventPublisher(publisher, cfg.ReportEventsQueue, clock, metrics, log),
		Clock:       clock,
		Metrics:     metrics,
		Log:         log,
		PhoneRegion: cfg.DefaultPhoneRegion,
	})

	if consumer != nil {
		assigner := service.NewAreaAssignmentService(reportRepo, areaRepo, locker, metrics, log)
		reportConsumer := worker.NewReportConsumer(consumer, cfg.ReportEventsQueue, assigner, log)
		go func() {
			if err := reportConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.LogError(log, "worker", "ReportConsumer.Start", "consume report events", cfg.ReportEventsQueue, err)
			}
		}()
	}

	if err := handler.RegisterValidators(cfg.DefaultPhoneRegion); err != nil {
		log.WithError(err).Fatal("could not register validators")
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, clock)
	go limiter.Run(ctx)

	router := handler.NewRouter(handler.RouterDeps{
		Auth:           authService,
		Reports:        reportService,
		Events:         service.NewEventService(eventRepo, statsCache, clock, log),
		Areas:          service.NewAreaService(areaRepo, eventRepo, geometryValidator, statsCache, clock, log),
		Locations:      service.NewLocationService(locationRepo, clock),
		Historical:     service.NewHistoricalService(historicalRepo, geometryValidator, clock),
		Storage:        storageService,
		RateLimiter:    limiter,
		Metrics:        metrics,
		Log:            log,
		Ready:          readiness(db, rdb),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func readiness(db *sql.DB, rdb *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		if rdb != nil {
			return rdb.Ping(ctx).Err()
		}
		return nil
	}
}
