package config

import (
	"fmt"
	"strings"
	"time"
)

// UploadService definition upload_service YAML structure
type UploadService struct {
	Port string `mapstructure:"port"`

	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	Redis      RedisConfig    `mapstructure:"redis"`
	MinIO      MinIOConfig    `mapstructure:"minio"`

	// 預簽名 URL 有效時間
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// TranscodeWorker definition transcode_worker YAML structure
type TranscodeWorker struct {
	MinIO    MinIOConfig    `mapstructure:"minio"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`

	// 播放連結組合用的 CDN base，例如 https://cdn.example.com
	CDNBaseURL string `mapstructure:"cdn_base_url"`
	// upload_service 的連結註冊 endpoint
	NotifyEndpoint string `mapstructure:"notify_endpoint"`
	NotifyRetry    int    `mapstructure:"notify_retry"`

	PollInterval time.Duration `mapstructure:"poll_interval"`
	ReceiveBatch int           `mapstructure:"receive_batch"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	ScratchDir   string        `mapstructure:"scratch_dir"`
}

// MinIOConfig definition minio setting（上傳桶與 HLS 輸出桶分開）
type MinIOConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	UploadBucket string `mapstructure:"upload_bucket"`
	HLSBucket    string `mapstructure:"hls_bucket"`
	UseSSL       bool   `mapstructure:"use_ssl"`

	RetryCount    int           `mapstructure:"retry_count"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// RabbitMQConfig definition rabbitmq setting
type RabbitMQConfig struct {
	IP       string `mapstructure:"ip"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`

	RetryCount    int `mapstructure:"retry_count"`
	RetryInterval int `mapstructure:"retry_interval"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	RedisDB int    `mapstructure:"redis_db"`
}

// KafkaConfig definition kafka setting
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`

	RetryCount    int           `mapstructure:"retry_count"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// Validate 檢查必填欄位，缺少的欄位彙整成一個錯誤一次回報
func (c UploadService) Validate() error {
	var missing []string
	if c.Port == "" {
		missing = append(missing, "port")
	}
	if c.PostgreSQL.Host == "" || c.PostgreSQL.Database == "" {
		missing = append(missing, "pg.host/pg.database")
	}
	if c.Redis.Host == "" {
		missing = append(missing, "redis.host")
	}
	missing = append(missing, c.MinIO.missingFields()...)
	return missingErr(missing)
}

// Validate 檢查必填欄位，缺少的欄位彙整成一個錯誤一次回報
func (c TranscodeWorker) Validate() error {
	var missing []string
	missing = append(missing, c.MinIO.missingFields()...)
	if c.RabbitMQ.IP == "" || c.RabbitMQ.Port == "" {
		missing = append(missing, "rabbitmq.ip/rabbitmq.port")
	}
	if c.Redis.Host == "" {
		missing = append(missing, "redis.host")
	}
	if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
		missing = append(missing, "kafka.brokers/kafka.topic")
	}
	if c.CDNBaseURL == "" {
		missing = append(missing, "cdn_base_url")
	}
	if c.NotifyEndpoint == "" {
		missing = append(missing, "notify_endpoint")
	}
	if c.ScratchDir == "" {
		missing = append(missing, "scratch_dir")
	}
	return missingErr(missing)
}

func (m MinIOConfig) missingFields() []string {
	var missing []string
	if m.Host == "" {
		missing = append(missing, "minio.host")
	}
	if m.User == "" || m.Password == "" {
		missing = append(missing, "minio.user/minio.password")
	}
	if m.UploadBucket == "" {
		missing = append(missing, "minio.upload_bucket")
	}
	if m.HLSBucket == "" {
		missing = append(missing, "minio.hls_bucket")
	}
	return missing
}

func missingErr(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("缺少必要設定: %s", strings.Join(missing, ", "))
}
