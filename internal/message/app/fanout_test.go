package app

import (
	"context"
	"testing"

	"ephemeral_message_service/internal/message/domain"
	"ephemeral_message_service/pkg/logger"

	"github.com/stretchr/testify/assert"
)

// 測試 Publish
func TestNotificationFanout_Publish(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	event := domain.ChatEvent{Type: domain.EventMessageCreated, ChatID: "c1", MessageID: "m1"}

	t.Run("journal 失敗不影響即時投遞", func(t *testing.T) {
		pubsub := new(MockEventPubSub)
		journal := new(MockEventJournal)

		journal.On("Append", ctx, event).Return(assert.AnError)
		pubsub.On("Publish", ctx, event).Return(nil)

		f := NewNotificationFanout(pubsub, journal)
		assert.NoError(t, f.Publish(ctx, event))
		pubsub.AssertExpectations(t)
	})

	t.Run("pub sub 失敗回傳錯誤", func(t *testing.T) {
		pubsub := new(MockEventPubSub)

		pubsub.On("Publish", ctx, event).Return(assert.AnError)

		f := NewNotificationFanout(pubsub, nil)
		assert.Error(t, f.Publish(ctx, event))
	})
}
