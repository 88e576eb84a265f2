package domain

import "time"

const (
	// QueueName definition 轉碼工作佇列名稱（storage event 會落在這裡）
	QueueName = "transcode-jobs"
	// DeadLetterQueueName 超過最大嘗試次數的工作轉送到這裡
	DeadLetterQueueName = "transcode-jobs-dead"
)

// JobStatus definition 單一 job 的管線狀態
type JobStatus string

const (
	// StatusReceived 已從佇列取出訊息
	StatusReceived JobStatus = "RECEIVED"
	// StatusDownloading 從上傳桶下載原始檔中
	StatusDownloading JobStatus = "DOWNLOADING"
	// StatusTranscoding 逐一轉碼 ladder 中
	StatusTranscoding JobStatus = "TRANSCODING"
	// StatusAssembling 產生 master playlist 中
	StatusAssembling JobStatus = "ASSEMBLING"
	// StatusUploading 上傳輸出目錄到 HLS 桶中
	StatusUploading JobStatus = "UPLOADING"
	// StatusNotifying 回呼註冊播放連結中
	StatusNotifying JobStatus = "NOTIFYING"
	// StatusDone 完成，訊息已確認
	StatusDone JobStatus = "DONE"
	// StatusFailed 任一步驟失敗，訊息等待重新投遞
	StatusFailed JobStatus = "FAILED"
)

// JobState 存於 Redis 的 job 狀態，gateway 的 status endpoint 讀這個
type JobState struct {
	VideoID   string    `json:"video_id"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusEvent 發布到 Kafka 的狀態轉移事件
type StatusEvent struct {
	VideoID string    `json:"video_id"`
	Status  JobStatus `json:"status"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// StorageEvent 佇列訊息的事件封包，只讀 Records[0].s3.object.key，
// 其他形狀一律視為 malformed
type StorageEvent struct {
	Records []StorageRecord `json:"Records"`
}

// StorageRecord definition storage event record
type StorageRecord struct {
	S3 S3Entity `json:"s3"`
}

// S3Entity definition storage event s3 欄位
type S3Entity struct {
	Object S3Object `json:"object"`
}

// S3Object definition storage event object 欄位
type S3Object struct {
	Key string `json:"key"`
}
