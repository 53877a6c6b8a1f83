package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-ticketing/internal/api"
	"github.com/sanosuguru/go-event-ticketing/internal/api/handler"
	custommiddleware "github.com/sanosuguru/go-event-ticketing/internal/api/middleware"
	"github.com/sanosuguru/go-event-ticketing/internal/application"
	"github.com/sanosuguru/go-event-ticketing/internal/config"
	"github.com/sanosuguru/go-event-ticketing/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-event-ticketing/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-ticketing/internal/pkg/logger"
	"github.com/sanosuguru/go-event-ticketing/internal/pkg/metrics"
	"github.com/sanosuguru/go-event-ticketing/internal/worker"
)

func main() {
	// 設定読み込み
	cfg := config.Load()

	// ロガー初期化
	log, err := logger.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	logger.Set(log)
	defer logger.Sync()

	// メトリクス初期化
	m := metrics.Init()

	// PostgreSQL接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// Redis接続（ロックとキャッシュに使用。接続できない場合は縮退運転）
	var (
		lockManager redisinfra.LockManagerInterface
		cache       redisinfra.AvailabilityCacheInterface
	)
	redisClient, err := redisinfra.NewClient(&redisinfra.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("Redis接続に失敗。分散ロックとキャッシュなしで起動します", zap.Error(err))
	} else {
		defer redisClient.Close()
		lockManager = redisinfra.NewLockManager(redisClient)
		cache = redisinfra.NewAvailabilityCache(redisClient)
	}

	// リポジトリ
	eventRepo := postgres.NewEventRepository(db)
	zoneRepo := postgres.NewZoneRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	txManager := postgres.NewTxManager(db)

	// サービス
	eventService := application.NewEventService(eventRepo)
	zoneService := application.NewZoneService(zoneRepo, eventRepo, cache)
	reservationService := application.NewReservationService(
		txManager, reservationRepo, zoneRepo, eventRepo, lockManager, cache)

	// ハンドラー
	healthHandler := handler.NewHealthHandler()
	eventHandler := handler.NewEventHandler(eventService)
	zoneHandler := handler.NewZoneHandler(zoneService)
	reservationHandler := handler.NewReservationHandler(reservationService)

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	// ルーティング
	e.GET("/health", healthHandler.Check)

	v1 := e.Group("/api/v1")

	v1.POST("/events", eventHandler.Create)
	v1.GET("/events", eventHandler.List)
	v1.GET("/events/:id", eventHandler.GetByID)
	v1.PUT("/events/:id", eventHandler.Update)
	v1.DELETE("/events/:id", eventHandler.Delete)

	v1.POST("/events/:event_id/zones", zoneHandler.Create)
	v1.POST("/events/:event_id/zones/bulk", zoneHandler.CreateBulk)
	v1.GET("/events/:event_id/zones", zoneHandler.GetByEvent)
	v1.GET("/events/:event_id/availability", zoneHandler.CountEventAvailability)
	v1.GET("/zones/:id", zoneHandler.GetByID)
	v1.GET("/zones/:id/availability", zoneHandler.CountAvailability)

	v1.POST("/reservations", reservationHandler.Create)
	v1.POST("/reservations/quote", reservationHandler.Quote)
	v1.GET("/reservations", reservationHandler.GetUserReservations)
	v1.GET("/reservations/:id", reservationHandler.GetByID)
	v1.POST("/reservations/:id/confirm", reservationHandler.Confirm)
	v1.POST("/reservations/:id/cancel", reservationHandler.Cancel)

	// Prometheus メトリクス（Basic認証は環境変数設定時のみ）
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommiddleware.MetricsBasicAuth())

	// バックグラウンドワーカー
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	maintainer := worker.NewReservationMaintainer(
		reservationService,
		cfg.Reservation.CleanerInterval,
		cfg.Reservation.HoldTTL,
	)
	go maintainer.Start(ctx)

	// サーバー起動
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	// ワーカー停止
	cancel()
	maintainer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
