package app

import (
	"context"
	"errors"
	"testing"

	"ephemeral_message_service/internal/message/domain"
	"ephemeral_message_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func directChat(id string, participants ...string) *domain.Chat {
	return &domain.Chat{
		ID:           id,
		ChatType:     domain.ChatTypeDirect,
		Participants: participants,
	}
}

// 測試 MarkViewed
func TestViewUseCase_MarkViewed(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	t.Run("首次觀看寫入 view 並發布事件", func(t *testing.T) {
		chatRepo := new(MockChatRepository)
		msgRepo := new(MockMessageRepository)
		viewRepo := new(MockViewRepository)
		pubsub := new(MockEventPubSub)

		msg := &domain.Message{ID: "m1", ChatID: "c1", SenderID: "user-a", IsDisappearing: true}
		msgRepo.On("FindByID", ctx, "m1").Return(msg, nil)
		chatRepo.On("FindByID", ctx, "c1").Return(directChat("c1", "user-a", "user-b"), nil)
		viewRepo.On("Insert", ctx, mock.Anything).Return(true, nil)
		msgRepo.On("MarkViewed", ctx, "m1", mock.Anything).Return(true, nil)
		pubsub.On("Publish", ctx, mock.MatchedBy(func(e domain.ChatEvent) bool {
			return e.Type == domain.EventMessageViewed && e.MessageID == "m1" && e.ViewerID == "user-b"
		})).Return(nil)

		uc := NewViewUseCase(chatRepo, msgRepo, viewRepo, NewNotificationFanout(pubsub, nil))
		err := uc.MarkViewed(ctx, "m1", "user-b")

		assert.NoError(t, err)
		viewRepo.AssertExpectations(t)
		msgRepo.AssertExpectations(t)
		pubsub.AssertExpectations(t)
	})

	t.Run("重複觀看不再轉換也不發事件", func(t *testing.T) {
		chatRepo := new(MockChatRepository)
		msgRepo := new(MockMessageRepository)
		viewRepo := new(MockViewRepository)
		pubsub := new(MockEventPubSub)

		msg := &domain.Message{ID: "m1", ChatID: "c1", SenderID: "user-a", IsDisappearing: true, ViewedByRecipient: true}
		msgRepo.On("FindByID", ctx, "m1").Return(msg, nil)
		chatRepo.On("FindByID", ctx, "c1").Return(directChat("c1", "user-a", "user-b"), nil)
		// 唯一鍵已存在，guard update 也不會再轉移
		viewRepo.On("Insert", ctx, mock.Anything).Return(false, nil)
		msgRepo.On("MarkViewed", ctx, "m1", mock.Anything).Return(false, nil)

		uc := NewViewUseCase(chatRepo, msgRepo, viewRepo, NewNotificationFanout(pubsub, nil))
		err := uc.MarkViewed(ctx, "m1", "user-b")

		assert.NoError(t, err)
		msgRepo.AssertExpectations(t)
		pubsub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("轉移失敗後重試仍會補上轉移", func(t *testing.T) {
		chatRepo := new(MockChatRepository)
		msgRepo := new(MockMessageRepository)
		viewRepo := new(MockViewRepository)
		pubsub := new(MockEventPubSub)

		msg := &domain.Message{ID: "m1", ChatID: "c1", SenderID: "user-a", IsDisappearing: true}
		msgRepo.On("FindByID", ctx, "m1").Return(msg, nil)
		chatRepo.On("FindByID", ctx, "c1").Return(directChat("c1", "user-a", "user-b"), nil)
		// 第一次：view 寫入成功，但狀態轉移暫時失敗
		viewRepo.On("Insert", ctx, mock.Anything).Return(true, nil).Once()
		msgRepo.On("MarkViewed", ctx, "m1", mock.Anything).Return(false, errors.New("db timeout")).Once()
		// 重試：view 已存在，轉移必須補上並發事件
		viewRepo.On("Insert", ctx, mock.Anything).Return(false, nil).Once()
		msgRepo.On("MarkViewed", ctx, "m1", mock.Anything).Return(true, nil).Once()
		pubsub.On("Publish", ctx, mock.MatchedBy(func(e domain.ChatEvent) bool {
			return e.Type == domain.EventMessageViewed && e.MessageID == "m1"
		})).Return(nil).Once()

		uc := NewViewUseCase(chatRepo, msgRepo, viewRepo, NewNotificationFanout(pubsub, nil))

		assert.Error(t, uc.MarkViewed(ctx, "m1", "user-b"))
		assert.NoError(t, uc.MarkViewed(ctx, "m1", "user-b"))
		msgRepo.AssertNumberOfCalls(t, "MarkViewed", 2)
		pubsub.AssertExpectations(t)
	})

	t.Run("發送者自看是 no-op", func(t *testing.T) {
		chatRepo := new(MockChatRepository)
		msgRepo := new(MockMessageRepository)
		viewRepo := new(MockViewRepository)
		pubsub := new(MockEventPubSub)

		msg := &domain.Message{ID: "m1", ChatID: "c1", SenderID: "user-a", IsDisappearing: true}
		msgRepo.On("FindByID", ctx, "m1").Return(msg, nil)

		uc := NewViewUseCase(chatRepo, msgRepo, viewRepo, NewNotificationFanout(pubsub, nil))
		err := uc.MarkViewed(ctx, "m1", "user-a")

		assert.NoError(t, err)
		viewRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("非 direct 聊天室不記 view", func(t *testing.T) {
		chatRepo := new(MockChatRepository)
		msgRepo := new(MockMessageRepository)
		viewRepo := new(MockViewRepository)
		pubsub := new(MockEventPubSub)

		msg := &domain.Message{ID: "m1", ChatID: "c1", SenderID: "user-a"}
		msgRepo.On("FindByID", ctx, "m1").Return(msg, nil)
		chatRepo.On("FindByID", ctx, "c1").Return(&domain.Chat{
			ID:           "c1",
			ChatType:     domain.ChatTypeGroup,
			Participants: []string{"user-a", "user-b", "user-c"},
		}, nil)

		uc := NewViewUseCase(chatRepo, msgRepo, viewRepo, NewNotificationFanout(pubsub, nil))
		err := uc.MarkViewed(ctx, "m1", "user-b")

		assert.NoError(t, err)
		viewRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("非參與者的 view 被忽略", func(t *testing.T) {
		chatRepo := new(MockChatRepository)
		msgRepo := new(MockMessageRepository)
		viewRepo := new(MockViewRepository)
		pubsub := new(MockEventPubSub)

		msg := &domain.Message{ID: "m1", ChatID: "c1", SenderID: "user-a"}
		msgRepo.On("FindByID", ctx, "m1").Return(msg, nil)
		chatRepo.On("FindByID", ctx, "c1").Return(directChat("c1", "user-a", "user-b"), nil)

		uc := NewViewUseCase(chatRepo, msgRepo, viewRepo, NewNotificationFanout(pubsub, nil))
		err := uc.MarkViewed(ctx, "m1", "user-x")

		assert.NoError(t, err)
		viewRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("訊息已被清掃是 no-op", func(t *testing.T) {
		chatRepo := new(MockChatRepository)
		msgRepo := new(MockMessageRepository)
		viewRepo := new(MockViewRepository)
		pubsub := new(MockEventPubSub)

		msgRepo.On("FindByID", ctx, "m1").Return(nil, gorm.ErrRecordNotFound)

		uc := NewViewUseCase(chatRepo, msgRepo, viewRepo, NewNotificationFanout(pubsub, nil))
		err := uc.MarkViewed(ctx, "m1", "user-b")

		assert.NoError(t, err)
		viewRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})
}
