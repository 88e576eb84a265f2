package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"video_transcode_service/internal/transcode/app"
	"video_transcode_service/internal/transcode/domain"
	"video_transcode_service/internal/transcode/repository"
	"video_transcode_service/pkg/config"
	"video_transcode_service/pkg/database"
	"video_transcode_service/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.TranscodeWorker, config.EnvConfig.TranscodeWorkerLogPath)

	cfg := config.LoadConfig[config.TranscodeWorker](config.EnvConfig.TranscodeWorker, config.EnvConfig.TranscodeWorkerYAMLPath)
	// 必填設定一次驗證完，缺什麼直接整批回報
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("設定檔驗證失敗", zap.Error(err))
	}

	// 1. MinIO：原始上傳桶（下載來源）與 HLS 輸出桶分開連線
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
		logger.Log.Fatal("Unable to connect to minio (upload bucket) after retries", zap.Error(err))
	}

	hlsStore, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:   fmt.Sprintf("%s:%d", cfg.MinIO.Host, cfg.MinIO.Port),
		User:       cfg.MinIO.User,
		Password:   cfg.MinIO.Password,
		BucketName: cfg.MinIO.HLSBucket,
		UseSSL:     cfg.MinIO.UseSSL,

		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: cfg.MinIO.RetryInterval,
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to minio (hls bucket) after retries", zap.Error(err))
	}

	// 2. RabbitMQ：轉碼工作佇列與 dead-letter 佇列
	rabbitURL := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.IP, cfg.RabbitMQ.Port)
	conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    rabbitURL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	})
	if err != nil {
		log.Fatalf("RabbitMQ 連線失敗: %v", err)
	}
	defer conn.Close()

	rabbitChannel, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		log.Fatalf("取得 RabbitMQ Channel 失敗: %v", err)
	}
	defer rabbitChannel.Close()

	if err := database.DeclareQueue(rabbitChannel, domain.QueueName); err != nil {
		log.Fatalf("Queue Declare failed: %v", err)
	}
	if err := database.DeclareQueue(rabbitChannel, domain.DeadLetterQueueName); err != nil {
		log.Fatalf("Dead-letter Queue Declare failed: %v", err)
	}
	queue := database.NewJobQueueRepository(rabbitChannel)

	// 3. Redis：job 狀態與嘗試計數
	redisClient, err := database.NewRedisClient(
		fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port), cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal("Unable to connect to redis", zap.Error(err))
	}
	statusRepo := repository.NewStatusRepo(
		database.NewRedisRepository[domain.JobState](redisClient),
		database.NewRedisRepository[int64](redisClient),
	)

	// 4. Kafka：狀態轉移事件
	kafkaWriter, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: cfg.Kafka.RetryInterval,
	})
	if err != nil {
		log.Fatalf("Kafka Writer 建立失敗: %v", err)
	}
	events := database.NewEventRepository(kafkaWriter)
	defer events.Close()

	// 5. 組裝管線與輪詢迴圈
	pipeline := app.NewPipeline(uploadStore, hlsStore, app.NewFFmpegEngine(), statusRepo, events,
		app.PipelineSettings{
			CDNBaseURL:     cfg.CDNBaseURL,
			NotifyEndpoint: cfg.NotifyEndpoint,
			NotifyRetry:    cfg.NotifyRetry,
			ScratchDir:     cfg.ScratchDir,
		})

	consumer := app.NewConsumer(queue, pipeline, statusRepo, app.ConsumerSettings{
		PollInterval: cfg.PollInterval,
		ReceiveBatch: cfg.ReceiveBatch,
		MaxAttempts:  cfg.MaxAttempts,
	})

	// SIGINT / SIGTERM 時取消 context，讓輪詢迴圈收尾後退出
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	consumer.Start(ctx)
	logger.Log.Info("TranscodeWorker 已停止")
	logger.Log.Sync()
}
