package app

import (
	"context"
	"errors"
	"time"

	"ephemeral_message_service/internal/message/domain"
	"ephemeral_message_service/internal/message/repository"
	"ephemeral_message_service/pkg"
	"ephemeral_message_service/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ViewUseCase 負責記錄「誰看過哪則訊息」，view 欄位只有這裡會寫
type ViewUseCase struct {
	chatRepo repository.ChatRepository
	msgRepo  repository.MessageRepository
	viewRepo repository.ViewRepository
	fanout   *NotificationFanout
}

// NewViewUseCase init create view use case
func NewViewUseCase(
	chatRepo repository.ChatRepository,
	msgRepo repository.MessageRepository,
	viewRepo repository.ViewRepository,
	fanout *NotificationFanout,
) *ViewUseCase {
	return &ViewUseCase{
		chatRepo: chatRepo,
		msgRepo:  msgRepo,
		viewRepo: viewRepo,
		fanout:   fanout,
	}
}

// MarkViewed 記錄 viewer 看過 message
// 政策違規（自看、非 direct 聊天室、非參與者）一律 no-op，不回錯誤；
// 重複呼叫只會留下一筆 view 且狀態不變
func (uc *ViewUseCase) MarkViewed(ctx context.Context, messageID, viewerID string) error {
	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 訊息已被清掃，view 遲到了，當 no-op
			return nil
		}
		return err
	}

	// 發送者不能自看
	if viewerID == msg.SenderID {
		return nil
	}

	chat, err := uc.chatRepo.FindByID(ctx, msg.ChatID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil
		}
		return err
	}

	// 只有 direct 聊天室記 view
	if chat.ChatType != domain.ChatTypeDirect {
		return nil
	}

	// 收件人 = 發送者以外的參與者
	recipients := pkg.Without(chat.Participants, msg.SenderID)
	if !pkg.Contains(recipients, viewerID) {
		return nil
	}

	now := time.Now()
	if _, err := uc.viewRepo.Insert(ctx, &domain.MessageView{
		MessageID: messageID,
		ViewerID:  viewerID,
		ViewedAt:  now,
	}); err != nil {
		return err
	}

	// 狀態轉移不依賴 insert 是否為第一筆：
	// 若前次呼叫 insert 成功但 MarkViewed 失敗，重試仍要補上轉移。
	// MarkViewed 本身有 viewed_by_recipient = false 的 guard，重複呼叫不會二次轉移
	transitioned, err := uc.msgRepo.MarkViewed(ctx, messageID, now)
	if err != nil {
		return err
	}

	if transitioned {
		event := domain.ChatEvent{
			Type:      domain.EventMessageViewed,
			ChatID:    msg.ChatID,
			MessageID: msg.ID,
			ViewerID:  viewerID,
			Timestamp: now.Unix(),
		}
		if err := uc.fanout.Publish(ctx, event); err != nil {
			logger.Log.Warn("publish viewed event failed",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}
