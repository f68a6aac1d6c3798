package app

import (
	"context"

	"ephemeral_message_service/internal/message/domain"
	"ephemeral_message_service/internal/message/repository"
	"ephemeral_message_service/pkg/logger"

	"go.uber.org/zap"
)

// NotificationFanout 發布事件給聊天室的所有訂閱者
// redis pub/sub 給在線訂閱者，kafka journal 給離線/下游消費者
type NotificationFanout struct {
	pubsub  repository.EventPubSub
	journal repository.EventJournal
}

// NewNotificationFanout create NotificationFanout，journal 可為 nil
func NewNotificationFanout(pubsub repository.EventPubSub, journal repository.EventJournal) *NotificationFanout {
	return &NotificationFanout{
		pubsub:  pubsub,
		journal: journal,
	}
}

// Publish 發布事件，journal 寫入失敗只記 log，不影響呼叫方
func (f *NotificationFanout) Publish(ctx context.Context, event domain.ChatEvent) error {
	if f.journal != nil {
		if err := f.journal.Append(ctx, event); err != nil {
			logger.Log.Warn("event journal append failed",
				zap.String("chat_id", event.ChatID),
				zap.String("message_id", event.MessageID),
				zap.Error(err),
			)
		}
	}

	return f.pubsub.Publish(ctx, event)
}

// Subscribe 訂閱聊天室事件流，ctx 取消即退訂
func (f *NotificationFanout) Subscribe(ctx context.Context, chatID string, handler func(event domain.ChatEvent)) error {
	return f.pubsub.Subscribe(ctx, chatID, handler)
}
