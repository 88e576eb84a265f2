package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validWorkerConfig() TranscodeWorker {
	return TranscodeWorker{
		MinIO: MinIOConfig{
			Host:         "localhost",
			User:         "minioadmin",
			Password:     "minioadmin",
			UploadBucket: "upload-bucket",
			HLSBucket:    "hls-bucket",
		},
		RabbitMQ:       RabbitMQConfig{IP: "localhost", Port: "5672"},
		Redis:          RedisConfig{Host: "localhost"},
		Kafka:          KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "transcode-status"},
		CDNBaseURL:     "https://cdn.example.com",
		NotifyEndpoint: "http://localhost:8080/upload/upload-video-link",
		ScratchDir:     "/tmp/transcode",
	}
}

// 測試 TranscodeWorker.Validate
func TestTranscodeWorkerValidate(t *testing.T) {
	t.Run("完整設定通過驗證", func(t *testing.T) {
		assert.NoError(t, validWorkerConfig().Validate())
	})

	t.Run("缺少欄位彙整在同一個錯誤裡", func(t *testing.T) {
		cfg := validWorkerConfig()
		cfg.CDNBaseURL = ""
		cfg.ScratchDir = ""
		cfg.Kafka.Topic = ""

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cdn_base_url")
		assert.Contains(t, err.Error(), "scratch_dir")
		assert.Contains(t, err.Error(), "kafka.brokers/kafka.topic")
	})

	t.Run("空設定列出所有必填欄位", func(t *testing.T) {
		err := TranscodeWorker{}.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "minio.host")
		assert.Contains(t, err.Error(), "rabbitmq.ip/rabbitmq.port")
		assert.Contains(t, err.Error(), "redis.host")
		assert.Contains(t, err.Error(), "notify_endpoint")
	})
}

// 測試 UploadService.Validate
func TestUploadServiceValidate(t *testing.T) {
	valid := UploadService{
		Port:       "8080",
		PostgreSQL: DatabaseConfig{Host: "localhost", Database: "uploaddb"},
		Redis:      RedisConfig{Host: "localhost"},
		MinIO: MinIOConfig{
			Host:         "localhost",
			User:         "minioadmin",
			Password:     "minioadmin",
			UploadBucket: "upload-bucket",
			HLSBucket:    "hls-bucket",
		},
	}

	t.Run("完整設定通過驗證", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("缺少 port 與資料庫設定回報", func(t *testing.T) {
		cfg := valid
		cfg.Port = ""
		cfg.PostgreSQL.Host = ""

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "port")
		assert.Contains(t, err.Error(), "pg.host/pg.database")
	})
}
