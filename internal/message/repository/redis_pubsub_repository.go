package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"ephemeral_message_service/internal/message/domain"
	"ephemeral_message_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// EventPubSub definition fan-out pub/sub
type EventPubSub interface {
	Publish(ctx context.Context, event domain.ChatEvent) error
	Subscribe(ctx context.Context, chatID string, handler func(event domain.ChatEvent)) error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client: client,
	}
}

// ChatChannel 聊天室的 fan-out channel 名稱
func ChatChannel(chatID string) string {
	return "chat:room:" + chatID
}

// Publish 將 event 序列化後，發布到聊天室的 channel
func (r *RedisPubSub) Publish(ctx context.Context, event domain.ChatEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, ChatChannel(event.ChatID), data).Err()
}

// Subscribe 訂閱聊天室 channel，收到事件後呼叫 handler 處理
// ctx 取消即退訂，之後不再投遞
func (r *RedisPubSub) Subscribe(ctx context.Context, chatID string, handler func(event domain.ChatEvent)) error {
	channel := ChatChannel(chatID)
	sub := r.client.Subscribe(ctx, channel)
	go func() {
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var event domain.ChatEvent
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					logger.Log.Error("Subscribe err :", zap.String("err", fmt.Sprintf("failed to unmarshal event: %v", err)))
					continue
				}

				handler(event)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				// ctx 被取消時關閉訂閱並退出循環
				sub.Close()
				return
			}
		}
	}()
	return nil
}
