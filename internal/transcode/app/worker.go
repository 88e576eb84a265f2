package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"video_transcode_service/internal/transcode/domain"
	"video_transcode_service/internal/transcode/repository"
	"video_transcode_service/pkg/database"
	errprocess "video_transcode_service/pkg/err"
	"video_transcode_service/pkg/logger"
)

// JobProcessor definition 單一 job 的處理入口（Pipeline 實作，測試時 mock）
type JobProcessor interface {
	Process(ctx context.Context, videoID string) error
}

// ConsumerSettings 輪詢行為設定，不寫死在程式裡
type ConsumerSettings struct {
	PollInterval time.Duration
	ReceiveBatch int
	MaxAttempts  int
}

// Consumer 長駐的佇列輪詢迴圈，將每則 storage event 交給 JobProcessor
type Consumer struct {
	queue      database.JobQueueRepo
	processor  JobProcessor
	statusRepo repository.StatusRepo
	settings   ConsumerSettings
}

// NewConsumer 建構 Consumer 實例
func NewConsumer(queue database.JobQueueRepo, processor JobProcessor, statusRepo repository.StatusRepo, settings ConsumerSettings) *Consumer {
	if settings.PollInterval <= 0 {
		settings.PollInterval = 5 * time.Second
	}
	if settings.ReceiveBatch <= 0 {
		settings.ReceiveBatch = 1
	}
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = 5
	}
	return &Consumer{
		queue:      queue,
		processor:  processor,
		statusRepo: statusRepo,
		settings:   settings,
	}
}

// Start 開始輪詢佇列，ctx 取消時返回。空批次只是暫停一個間隔再拉。
func (c *Consumer) Start(ctx context.Context) {
	logger.Log.Info("Consumer 已啟動，等待轉碼工作訊息...")

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Consumer 收到停止訊號")
			return
		default:
		}

		msgs, err := c.queue.Receive(domain.QueueName, c.settings.ReceiveBatch)
		if err != nil {
			logger.Log.Errorf("拉取佇列訊息失敗:", err)
			c.idle(ctx)
			continue
		}

		if len(msgs) == 0 {
			c.idle(ctx)
			continue
		}

		for _, msg := range msgs {
			c.handleMessage(ctx, msg)
		}
	}
}

func (c *Consumer) idle(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.settings.PollInterval):
	}
}

// handleMessage 處理一則訊息並決定 ack 或 requeue：
//   - 封包壞掉：記 log 後直接確認丟棄（重試不會變好）
//   - 超過最大嘗試次數：轉送 dead-letter 佇列後確認
//   - 管線成功：確認並清掉嘗試計數
//   - 管線失敗：放回佇列等待重新投遞
func (c *Consumer) handleMessage(ctx context.Context, msg database.QueueMessage) {
	videoID, err := parseStorageEvent(msg.Body)
	if err != nil {
		logger.Log.Error(fmt.Sprintf("捨棄無法解析的訊息: %v, body: %s", err, string(msg.Body)))
		if err := c.queue.Delete(msg.ReceiptHandle); err != nil {
			logger.Log.Errorf("確認 malformed 訊息失敗:", err)
		}
		return
	}

	attempts, err := c.statusRepo.IncrAttempts(ctx, videoID)
	if err != nil {
		logger.Log.Errorf(fmt.Sprintf("videoID[%s] 更新嘗試計數失敗:", videoID), err)
	}
	if attempts > int64(c.settings.MaxAttempts) {
		c.deadLetter(ctx, videoID, msg)
		return
	}

	logger.Log.Info(fmt.Sprintf("收到轉碼工作訊息: videoID=%s (嘗試 %d/%d)", videoID, attempts, c.settings.MaxAttempts))

	if err := c.processor.Process(ctx, videoID); err != nil {
		logger.Log.Errorf(fmt.Sprintf("videoID[%s] 處理轉碼工作失敗:", videoID), err)
		// 不確認訊息，放回佇列讓之後重新投遞
		if err := c.queue.Release(msg.ReceiptHandle); err != nil {
			logger.Log.Errorf("Release 訊息失敗:", err)
		}
		return
	}

	if err := c.queue.Delete(msg.ReceiptHandle); err != nil {
		logger.Log.Errorf("確認訊息失敗:", err)
		return
	}
	if err := c.statusRepo.ClearAttempts(ctx, videoID); err != nil {
		logger.Log.Errorf(fmt.Sprintf("videoID[%s] 清除嘗試計數失敗:", videoID), err)
	}
	logger.Log.Info(fmt.Sprintf("成功處理並確認訊息，videoID: %s", videoID))
}

// deadLetter 超過最大嘗試次數的工作轉送 dead-letter 佇列，原訊息確認移除
func (c *Consumer) deadLetter(ctx context.Context, videoID string, msg database.QueueMessage) {
	logger.Log.Error(fmt.Sprintf("videoID[%s] 超過最大嘗試次數 %d，轉送 dead-letter", videoID, c.settings.MaxAttempts))

	if err := c.queue.Publish(domain.DeadLetterQueueName, msg.Body); err != nil {
		logger.Log.Errorf(fmt.Sprintf("videoID[%s] 轉送 dead-letter 失敗:", videoID), err)
		// 轉送失敗就放回原佇列，下一輪再試
		if err := c.queue.Release(msg.ReceiptHandle); err != nil {
			logger.Log.Errorf("Release 訊息失敗:", err)
		}
		return
	}

	if err := c.queue.Delete(msg.ReceiptHandle); err != nil {
		logger.Log.Errorf("確認 dead-letter 訊息失敗:", err)
	}
	if err := c.statusRepo.SetStatus(ctx, videoID, domain.StatusFailed,
		fmt.Sprintf("exceeded max attempts (%d)", c.settings.MaxAttempts)); err != nil {
		logger.Log.Errorf(fmt.Sprintf("videoID[%s] 更新狀態失敗:", videoID), err)
	}
}

// parseStorageEvent 解析事件封包，只認 Records[0].s3.object.key
func parseStorageEvent(body []byte) (string, error) {
	var event domain.StorageEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return "", errprocess.SetKind(errprocess.ErrMalformedEvent,
			fmt.Sprintf("解析事件封包失敗: %v", err))
	}
	if len(event.Records) == 0 {
		return "", errprocess.SetKind(errprocess.ErrMalformedEvent, "事件封包缺少 Records")
	}
	key := event.Records[0].S3.Object.Key
	if key == "" {
		return "", errprocess.SetKind(errprocess.ErrMalformedEvent, "事件封包缺少 object key")
	}
	return key, nil
}
