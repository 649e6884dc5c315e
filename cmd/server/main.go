package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fekuna/omnipos-ledger-service/config"
	"github.com/fekuna/omnipos-ledger-service/internal/auth"
	"github.com/fekuna/omnipos-ledger-service/internal/ledger"
	ledgerHandler "github.com/fekuna/omnipos-ledger-service/internal/ledger/handler"
	ledgerListener "github.com/fekuna/omnipos-ledger-service/internal/ledger/listener"
	ledgerRepo "github.com/fekuna/omnipos-ledger-service/internal/ledger/repository"
	"github.com/fekuna/omnipos-ledger-service/internal/ledger/store"
	ledgerUC "github.com/fekuna/omnipos-ledger-service/internal/ledger/usecase"
	"github.com/fekuna/omnipos-ledger-service/internal/notifier"
	"github.com/fekuna/omnipos-ledger-service/internal/server"
	"github.com/fekuna/omnipos-ledger-service/pkg/broker"
	"github.com/fekuna/omnipos-ledger-service/pkg/cache"
	"github.com/fekuna/omnipos-ledger-service/pkg/logger"
	"github.com/fekuna/omnipos-ledger-service/pkg/search"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     false,
		DisableStacktrace: false,
	}

	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Open Catalog Store
	var repo ledger.Repository
	if cfg.Ledger.SnapshotPath != "" {
		boltStore, err := store.OpenBolt(cfg.Ledger.SnapshotPath)
		if err != nil {
			appLogger.Fatal("Could not open catalog snapshot", zap.Error(err))
		}
		defer boltStore.Close()
		appLogger.Info("Opened catalog snapshot",
			zap.String("path", cfg.Ledger.SnapshotPath),
			zap.Int("products", boltStore.Len()),
		)
		repo = boltStore
	} else {
		appLogger.Warn("No snapshot path configured, running memory-only")
		repo = store.NewMemory()
	}

	// 4. Initialize Redis
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		var err error
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5. Initialize Elasticsearch
	var esClient *search.Client
	if cfg.Elastic.Enabled {
		var err error
		esClient, err = search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch (search falls back to catalog scan)", zap.Error(err))
			esClient = nil
		} else {
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 6. Initialize Postgres Audit Store
	var auditRepo ledger.AuditRepository
	if cfg.Postgres.Enabled {
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User,
			cfg.Postgres.Password, cfg.Postgres.DBName, cfg.Postgres.SSLMode,
		)
		db, err := sqlx.Connect("pgx", dsn)
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second)
		db.SetConnMaxIdleTime(time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second)
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

		auditRepo = ledgerRepo.NewAuditPGRepository(db)
	}

	// 7. Assemble Notification Sinks
	sinks := []notifier.Notifier{notifier.NewLogNotifier(appLogger)}

	var kafkaProducer *broker.KafkaProducer
	var kafkaConsumer *broker.KafkaConsumer
	if cfg.Kafka.Enabled {
		kafkaProducer = broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.NotificationsTopic,
		})
		defer kafkaProducer.Close()
		sinks = append(sinks, notifier.NewKafkaNotifier(kafkaProducer))

		kafkaConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.OrdersTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("notifications_topic", cfg.Kafka.NotificationsTopic),
			zap.String("orders_topic", cfg.Kafka.OrdersTopic),
		)
	}
	if auditRepo != nil {
		sinks = append(sinks, notifier.NewAuditNotifier(auditRepo))
	}

	// 8. Initialize UseCase
	uc := ledgerUC.NewLedgerUseCase(ledgerUC.Config{
		Repo:         repo,
		Policy:       auth.OwnerPolicy{Owner: cfg.Ledger.Owner},
		Cache:        redisClient,
		ES:           esClient,
		Notifier:     notifier.NewFanout(sinks...),
		Logger:       appLogger,
		ReturnWindow: cfg.Ledger.ReturnWindow,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 9. Start Order Listener
	if kafkaConsumer != nil {
		orderListener := ledgerListener.NewOrderListener(kafkaConsumer, uc, appLogger)
		go orderListener.Start(ctx)
	}

	// 10. Build HTTP Server
	mux := http.NewServeMux()
	ledgerHandler.NewLedgerHandler(uc, auditRepo, appLogger).Register(mux)

	limiterStore := server.NewLimiterStore(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	limiterStore.StartJanitor(ctx)

	h := http.Handler(mux)
	h = server.CallerMiddleware(h)
	h = server.RateLimitMiddleware(limiterStore)(h)

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:              port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("forced shutdown", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
