package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"ephemeral_message_service/internal/message/domain"
	"ephemeral_message_service/pkg/database"
	"ephemeral_message_service/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// SweepQueue definition debounced targeted-sweep job queue
type SweepQueue interface {
	Enqueue(job domain.SweepJob) error
	// Consume 逐筆取出 job 交給 handler；handler 回傳 nil 才 ack
	Consume(ctx context.Context, handler func(job domain.SweepJob) error) error
}

type rabbitSweepQueue struct {
	rabbit database.RabbitRepo
	queue  string
}

// NewRabbitSweepQueue create a SweepQueue on an already-declared rabbit queue
func NewRabbitSweepQueue(rabbit database.RabbitRepo, queue string) SweepQueue {
	return &rabbitSweepQueue{rabbit: rabbit, queue: queue}
}

func (q *rabbitSweepQueue) Enqueue(job domain.SweepJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rabbit.Publish("", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         data,
	})
}

// Consume 清掃本身冪等，handler 失敗時 nack requeue 重投是安全的
func (q *rabbitSweepQueue) Consume(ctx context.Context, handler func(job domain.SweepJob) error) error {
	deliveries, err := q.rabbit.Consume(q.queue, "")
	if err != nil {
		return fmt.Errorf("failed to consume queue %s: %w", q.queue, err)
	}

	go func() {
		for {
			select {
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var job domain.SweepJob
				if err := json.Unmarshal(d.Body, &job); err != nil {
					logger.Log.Error("sweep job unmarshal err", zap.Error(err))
					// 格式錯誤的 job 重投也不會變好
					d.Nack(false, false)
					continue
				}

				if err := handler(job); err != nil {
					logger.Log.Warn("sweep job failed, requeue", zap.String("chat_id", job.ChatID), zap.Error(err))
					d.Nack(false, true)
					continue
				}
				d.Ack(false)
			case <-ctx.Done():
				logger.Log.Info("sweep queue consumer stopped")
				return
			}
		}
	}()
	return nil
}
