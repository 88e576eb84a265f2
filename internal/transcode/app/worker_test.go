package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"video_transcode_service/internal/transcode/domain"
	"video_transcode_service/pkg/database"
	errprocess "video_transcode_service/pkg/err"
	"video_transcode_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var validEventBody = []byte(`{"Records":[{"s3":{"object":{"key":"vid-1"}}}]}`)

// 測試 parseStorageEvent
func TestParseStorageEvent(t *testing.T) {
	logger.SetNewNop()

	t.Run("正常封包取出 object key", func(t *testing.T) {
		videoID, err := parseStorageEvent(validEventBody)
		assert.NoError(t, err)
		assert.Equal(t, "vid-1", videoID)
	})

	t.Run("非 JSON 內容視為 malformed", func(t *testing.T) {
		_, err := parseStorageEvent([]byte("not-json"))
		assert.ErrorIs(t, err, errprocess.ErrMalformedEvent)
	})

	t.Run("缺少 Records 視為 malformed", func(t *testing.T) {
		_, err := parseStorageEvent([]byte(`{"Records":[]}`))
		assert.ErrorIs(t, err, errprocess.ErrMalformedEvent)
	})

	t.Run("缺少 object key 視為 malformed", func(t *testing.T) {
		_, err := parseStorageEvent([]byte(`{"Records":[{"s3":{"object":{"key":""}}}]}`))
		assert.ErrorIs(t, err, errprocess.ErrMalformedEvent)
	})
}

// 測試 handleMessage 的確認 / 重投決策
func TestHandleMessage(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	msg := database.QueueMessage{Body: validEventBody, ReceiptHandle: 7}

	t.Run("管線成功後確認訊息並清除嘗試計數", func(t *testing.T) {
		mockQueue := new(MockJobQueueRepo)
		mockStatus := new(MockStatusRepo)
		mockProcessor := new(MockJobProcessor)
		consumer := NewConsumer(mockQueue, mockProcessor, mockStatus, ConsumerSettings{MaxAttempts: 3})

		mockStatus.On("IncrAttempts", ctx, "vid-1").Return(int64(1), nil).Once()
		mockProcessor.On("Process", ctx, "vid-1").Return(nil).Once()
		mockQueue.On("Delete", uint64(7)).Return(nil).Once()
		mockStatus.On("ClearAttempts", ctx, "vid-1").Return(nil).Once()

		consumer.handleMessage(ctx, msg)

		mockQueue.AssertExpectations(t)
		mockStatus.AssertExpectations(t)
		mockProcessor.AssertExpectations(t)
	})

	t.Run("管線失敗時訊息放回佇列", func(t *testing.T) {
		mockQueue := new(MockJobQueueRepo)
		mockStatus := new(MockStatusRepo)
		mockProcessor := new(MockJobProcessor)
		consumer := NewConsumer(mockQueue, mockProcessor, mockStatus, ConsumerSettings{MaxAttempts: 3})

		mockStatus.On("IncrAttempts", ctx, "vid-1").Return(int64(1), nil).Once()
		mockProcessor.On("Process", ctx, "vid-1").Return(errors.New("transcode blew up")).Once()
		mockQueue.On("Release", uint64(7)).Return(nil).Once()

		consumer.handleMessage(ctx, msg)

		mockQueue.AssertExpectations(t)
		mockQueue.AssertNotCalled(t, "Delete", mock.Anything)
	})

	t.Run("malformed 訊息直接確認丟棄", func(t *testing.T) {
		mockQueue := new(MockJobQueueRepo)
		mockStatus := new(MockStatusRepo)
		mockProcessor := new(MockJobProcessor)
		consumer := NewConsumer(mockQueue, mockProcessor, mockStatus, ConsumerSettings{MaxAttempts: 3})

		mockQueue.On("Delete", uint64(9)).Return(nil).Once()

		consumer.handleMessage(ctx, database.QueueMessage{Body: []byte("garbage"), ReceiptHandle: 9})

		mockQueue.AssertExpectations(t)
		mockProcessor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
		mockStatus.AssertNotCalled(t, "IncrAttempts", mock.Anything, mock.Anything)
	})

	t.Run("超過最大嘗試次數轉送 dead-letter", func(t *testing.T) {
		mockQueue := new(MockJobQueueRepo)
		mockStatus := new(MockStatusRepo)
		mockProcessor := new(MockJobProcessor)
		consumer := NewConsumer(mockQueue, mockProcessor, mockStatus, ConsumerSettings{MaxAttempts: 3})

		mockStatus.On("IncrAttempts", ctx, "vid-1").Return(int64(4), nil).Once()
		mockQueue.On("Publish", domain.DeadLetterQueueName, validEventBody).Return(nil).Once()
		mockQueue.On("Delete", uint64(7)).Return(nil).Once()
		mockStatus.On("SetStatus", ctx, "vid-1", domain.StatusFailed, mock.Anything).Return(nil).Once()

		consumer.handleMessage(ctx, msg)

		mockQueue.AssertExpectations(t)
		mockStatus.AssertExpectations(t)
		mockProcessor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
	})

	t.Run("dead-letter 轉送失敗時訊息放回原佇列", func(t *testing.T) {
		mockQueue := new(MockJobQueueRepo)
		mockStatus := new(MockStatusRepo)
		mockProcessor := new(MockJobProcessor)
		consumer := NewConsumer(mockQueue, mockProcessor, mockStatus, ConsumerSettings{MaxAttempts: 3})

		mockStatus.On("IncrAttempts", ctx, "vid-1").Return(int64(4), nil).Once()
		mockQueue.On("Publish", domain.DeadLetterQueueName, validEventBody).Return(errors.New("publish error")).Once()
		mockQueue.On("Release", uint64(7)).Return(nil).Once()

		consumer.handleMessage(ctx, msg)

		mockQueue.AssertExpectations(t)
		mockQueue.AssertNotCalled(t, "Delete", mock.Anything)
	})
}

// 測試 Start 的停止與空佇列行為
func TestConsumerStart(t *testing.T) {
	logger.SetNewNop()

	t.Run("ctx 取消後輪詢迴圈返回", func(t *testing.T) {
		mockQueue := new(MockJobQueueRepo)
		mockStatus := new(MockStatusRepo)
		mockProcessor := new(MockJobProcessor)
		consumer := NewConsumer(mockQueue, mockProcessor, mockStatus, ConsumerSettings{
			PollInterval: 10 * time.Millisecond,
		})

		mockQueue.On("Receive", domain.QueueName, 1).Return(nil, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		done := make(chan struct{})
		go func() {
			consumer.Start(ctx)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Start 沒有在 ctx 取消後返回")
		}
		mockProcessor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
	})

	t.Run("Receive 失敗時迴圈不中斷", func(t *testing.T) {
		mockQueue := new(MockJobQueueRepo)
		mockStatus := new(MockStatusRepo)
		mockProcessor := new(MockJobProcessor)
		consumer := NewConsumer(mockQueue, mockProcessor, mockStatus, ConsumerSettings{
			PollInterval: 10 * time.Millisecond,
		})

		mockQueue.On("Receive", domain.QueueName, 1).Return(nil, errors.New("amqp down"))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		consumer.Start(ctx)

		mockQueue.AssertCalled(t, "Receive", domain.QueueName, 1)
	})
}
