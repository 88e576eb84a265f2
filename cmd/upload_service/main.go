package main

import (
	"fmt"
	"log"
	"time"

	"video_transcode_service/internal/transcode/domain"
	trepository "video_transcode_service/internal/transcode/repository"
	"video_transcode_service/internal/upload/api/handlers"
	"video_transcode_service/internal/upload/api/router"
	"video_transcode_service/internal/upload/app"
	"video_transcode_service/internal/upload/repository"
	"video_transcode_service/pkg/config"
	"video_transcode_service/pkg/database"
	"video_transcode_service/pkg/logger"
	testtool "video_transcode_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.UploadService, config.EnvConfig.UploadServiceLogPath)

	cfg := config.LoadConfig[config.UploadService](config.EnvConfig.UploadService, config.EnvConfig.UploadServiceYAMLPath)
	// 必填設定一次驗證完，缺什麼直接整批回報
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("設定檔驗證失敗", zap.Error(err))
	}

	// 1. 連線 PostgreSQL（連結記錄）
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.PostgreSQL.Host, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database, cfg.PostgreSQL.Port)
	db, err := database.NewPGConnection(database.Connection{
		ConnectStr: dsn,

		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s]", dsn)),
			zap.Error(err),
		)
	}

	linkRepo := repository.NewLinkRepo(db)
	if err := linkRepo.AutoMigrate(); err != nil {
		log.Fatalf("資料表遷移失敗: %v", err)
	}

	// 2. 初始化 MinIO 客戶端（原始上傳桶，presign 用）
	uploadStore, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:   fmt.Sprintf("%s:%d", cfg.MinIO.Host, cfg.MinIO.Port),
		User:       cfg.MinIO.User,
		Password:   cfg.MinIO.Password,
		BucketName: cfg.MinIO.UploadBucket,
		UseSSL:     cfg.MinIO.UseSSL,

		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: cfg.MinIO.RetryInterval,
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to minio after retries", zap.Error(err))
	}

	// 3. Redis（job 狀態查詢）
	redisClient, err := database.NewRedisClient(
		fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port), cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal("Unable to connect to redis", zap.Error(err))
	}
	statusRepo := trepository.NewStatusRepo(
		database.NewRedisRepository[domain.JobState](redisClient),
		database.NewRedisRepository[int64](redisClient),
	)

	usecase := app.NewUploadUseCase(uploadStore, linkRepo, statusRepo, cfg.PresignExpiry)

	testtool.StartPprof()

	// 4. 建立 Fiber 應用與路由
	r := fiber.New()
	r.Use(fiber_log.New())

	uploadHandler := &handlers.UploadHandler{Usecase: usecase}
	healthHandler := &handlers.HealthHandler{Environment: config.Env()}
	router.RegisterRoutes(r, uploadHandler, healthHandler)

	logger.Log.Info(fmt.Sprintf("UploadService listening on : %s", cfg.Port))
	if err := r.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}
