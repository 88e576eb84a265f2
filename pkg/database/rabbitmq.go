package database

import (
	"fmt"
	"log"
	"time"

	"github.com/streadway/amqp"
)

// QueueMessage 一則佇列訊息，ReceiptHandle 之後用來 ack（delete）或 requeue
type QueueMessage struct {
	Body          []byte
	ReceiptHandle uint64
}

// JobQueueRepo 包裝 at-least-once 佇列：
// Receive 非阻塞拉取一批訊息、Delete 確認、Release 放回佇列等待重新投遞
type JobQueueRepo interface {
	Receive(queueName string, max int) ([]QueueMessage, error)
	Delete(receiptHandle uint64) error
	Release(receiptHandle uint64) error
	Publish(queueName string, body []byte) error
}

type jobQueueRepo struct {
	channel *amqp.Channel
}

// NewJobQueueRepository create a JobQueueRepo
func NewJobQueueRepository(ch *amqp.Channel) JobQueueRepo {
	return &jobQueueRepo{channel: ch}
}

// ConnectRabbitMQWithRetry 嘗試連線到 RabbitMQ，失敗時間隔重試
func ConnectRabbitMQWithRetry(d Connection) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error

	for attempt := 1; attempt <= d.RetryCount; attempt++ {
		conn, err = amqp.Dial(d.ConnectStr)
		if err == nil {
			log.Printf("RabbitMQ[%s] 連線成功 (嘗試 %d 次)", d.ConnectStr, attempt)
			return conn, nil
		}

		log.Printf("RabbitMQ[%s] 連線失敗 (嘗試 %d/%d): %v", d.ConnectStr, attempt, d.RetryCount, err)
		time.Sleep(d.RetryInterval * time.Second)
	}

	return nil, fmt.Errorf("無法連線 RabbitMQ[%s]，經過 %d 次嘗試: %v", d.ConnectStr, d.RetryCount, err)
}

// GetRabbitMQChannelWithRetry 使用已有的 RabbitMQ 連線嘗試取得 Channel
func GetRabbitMQChannelWithRetry(conn *amqp.Connection, maxRetries int, baseDelay time.Duration) (*amqp.Channel, error) {
	var ch *amqp.Channel
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		ch, err = conn.Channel()
		if err == nil {
			log.Printf("RabbitMQ Channel 建立成功 (嘗試 %d 次)", attempt)
			return ch, nil
		}

		log.Printf("建立 RabbitMQ Channel 失敗 (嘗試 %d/%d): %v", attempt, maxRetries, err)
		time.Sleep(baseDelay * time.Second)
	}

	return nil, fmt.Errorf("無法取得 RabbitMQ Channel，經過 %d 次嘗試: %v", maxRetries, err)
}

// Receive 以 basic.get 輪詢拉取最多 max 則訊息，佇列空了就提前返回。
// autoAck 為 false，訊息在 Delete 前都處於未確認狀態，worker 當掉會重新投遞。
func (r *jobQueueRepo) Receive(queueName string, max int) ([]QueueMessage, error) {
	var msgs []QueueMessage
	for i := 0; i < max; i++ {
		d, ok, err := r.channel.Get(queueName, false)
		if err != nil {
			return msgs, fmt.Errorf("拉取佇列[%s]訊息失敗: %w", queueName, err)
		}
		if !ok {
			break
		}
		msgs = append(msgs, QueueMessage{
			Body:          d.Body,
			ReceiptHandle: d.DeliveryTag,
		})
	}
	return msgs, nil
}

// Delete 確認訊息（處理完成或永久丟棄時呼叫）
func (r *jobQueueRepo) Delete(receiptHandle uint64) error {
	return r.channel.Ack(receiptHandle, false)
}

// Release 拒絕訊息並放回佇列，之後會被重新投遞
func (r *jobQueueRepo) Release(receiptHandle uint64) error {
	return r.channel.Nack(receiptHandle, false, true)
}

// Publish 發送訊息到指定佇列（dead-letter 轉送用）
func (r *jobQueueRepo) Publish(queueName string, body []byte) error {
	return r.channel.Publish(
		"",        // 預設 exchange
		queueName, // queue 名稱
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// DeclareQueue 宣告 durable queue，服務啟動時呼叫
func DeclareQueue(ch *amqp.Channel, queueName string) error {
	_, err := ch.QueueDeclare(
		queueName, // queue name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // arguments
	)
	return err
}
