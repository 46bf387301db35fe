package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/incuhub/inventory-service/config"
	"github.com/incuhub/inventory-service/internal/api/routes"
	"github.com/incuhub/inventory-service/internal/events"
	"github.com/incuhub/inventory-service/pkg/broker"
	"github.com/incuhub/inventory-service/pkg/cache"
	"github.com/incuhub/inventory-service/pkg/database/postgres"
	"github.com/incuhub/inventory-service/pkg/logger"

	assignH "github.com/incuhub/inventory-service/internal/assignment/handler"
	assignRepoPkg "github.com/incuhub/inventory-service/internal/assignment/repository"
	assignUCPkg "github.com/incuhub/inventory-service/internal/assignment/usecase"

	consumeH "github.com/incuhub/inventory-service/internal/consumption/handler"
	consumeRepoPkg "github.com/incuhub/inventory-service/internal/consumption/repository"
	consumeUCPkg "github.com/incuhub/inventory-service/internal/consumption/usecase"

	forecastH "github.com/incuhub/inventory-service/internal/forecast/handler"
	forecastUCPkg "github.com/incuhub/inventory-service/internal/forecast/usecase"

	ledgerH "github.com/incuhub/inventory-service/internal/ledger/handler"
	ledgerRepoPkg "github.com/incuhub/inventory-service/internal/ledger/repository"
	ledgerUCPkg "github.com/incuhub/inventory-service/internal/ledger/usecase"

	maintH "github.com/incuhub/inventory-service/internal/maintenance/handler"
	maintRepoPkg "github.com/incuhub/inventory-service/internal/maintenance/repository"
	maintUCPkg "github.com/incuhub/inventory-service/internal/maintenance/usecase"

	requestH "github.com/incuhub/inventory-service/internal/request/handler"
	requestRepoPkg "github.com/incuhub/inventory-service/internal/request/repository"
	requestUCPkg "github.com/incuhub/inventory-service/internal/request/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize logger
	logConfig := &logger.Config{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to the database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("connected to PostgreSQL", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Kafka producer for domain events
	producer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	defer producer.Close()
	publisher := events.NewKafkaPublisher(producer)
	appLogger.Info("kafka producer ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 6. Repositories
	ledgerRepo := ledgerRepoPkg.NewPGRepository(db)
	assignRepo := assignRepoPkg.NewPGRepository(db)
	consumeRepo := consumeRepoPkg.NewPGRepository(db)
	maintRepo := maintRepoPkg.NewPGRepository(db)
	requestRepo := requestRepoPkg.NewPGRepository(db)

	// 7. Use cases
	ledgerUC := ledgerUCPkg.NewLedgerUseCase(ledgerRepo, publisher, appLogger)
	assignUC := assignUCPkg.NewAssignmentUseCase(assignRepo, publisher, appLogger, cfg.Reservation.DefaultTTL)
	consumeUC := consumeUCPkg.NewConsumptionUseCase(consumeRepo, publisher, appLogger)
	maintUC := maintUCPkg.NewMaintenanceUseCase(maintRepo, appLogger)
	requestUC := requestUCPkg.NewRequestUseCase(
		requestRepo, assignUC, consumeUC, publisher, appLogger, redisClient, cfg.Workflow.ApprovalRoles)
	forecastUC := forecastUCPkg.NewForecastUseCase(
		ledgerRepo, consumeRepo, requestRepo, requestUC, appLogger,
		forecastUCPkg.Config{
			DefaultWindowDays:    cfg.Forecast.WindowDays,
			DefaultLookAheadDays: cfg.Forecast.LookAheadDays,
			DefaultWeeklyRate:    cfg.Forecast.TypicalWeeklyRate,
		})

	// 8. Reservation expiry sweep
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ticker := time.NewTicker(cfg.Reservation.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				released, err := assignUC.ExpireDue(ctx)
				if err != nil {
					appLogger.Error("reservation sweep failed", zap.Error(err))
					continue
				}
				if released > 0 {
					appLogger.Info("released expired reservations", zap.Int("count", released))
				}
			}
		}
	}()

	// 9. HTTP server
	router := routes.SetupRouter(&routes.Handlers{
		Inventory:   ledgerH.NewInventoryHandler(ledgerUC, appLogger),
		Assignment:  assignH.NewAssignmentHandler(assignUC, appLogger),
		Consumption: consumeH.NewConsumptionHandler(consumeUC, appLogger),
		Maintenance: maintH.NewMaintenanceHandler(maintUC, appLogger),
		Request:     requestH.NewRequestHandler(requestUC, appLogger),
		Forecast:    forecastH.NewForecastHandler(forecastUC, appLogger),
	})

	srv := &http.Server{
		Addr:    cfg.Server.HTTPPort,
		Handler: router,
	}

	go func() {
		appLogger.Info("http server listening", zap.String("addr", cfg.Server.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 10. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http shutdown failed", zap.Error(err))
	}
}
