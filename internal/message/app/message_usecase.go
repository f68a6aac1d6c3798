package app

import (
	"context"
	"errors"
	"time"

	"ephemeral_message_service/internal/message/domain"
	"ephemeral_message_service/internal/message/repository"
	"ephemeral_message_service/pkg"
	errprocess "ephemeral_message_service/pkg/err"
	"ephemeral_message_service/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SendMessageUseCase 負責建立聊天訊息
type SendMessageUseCase struct {
	chatRepo repository.ChatRepository
	msgRepo  repository.MessageRepository
	fanout   *NotificationFanout
}

// NewSendMessageUseCase init create message use case
func NewSendMessageUseCase(
	chatRepo repository.ChatRepository,
	msgRepo repository.MessageRepository,
	fanout *NotificationFanout,
) *SendMessageUseCase {
	return &SendMessageUseCase{
		chatRepo: chatRepo,
		msgRepo:  msgRepo,
		fanout:   fanout,
	}
}

// Execute send message
// is_disappearing 在這裡由聊天室類型一次決定，之後不再變動
func (uc *SendMessageUseCase) Execute(ctx context.Context, chatID, senderID, content, mediaRef string, mediaKind domain.MediaKind) (*domain.Message, error) {
	chat, err := uc.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if !pkg.Contains(chat.Participants, senderID) {
		return nil, errprocess.Set("sender is not a participant of chat " + chatID)
	}

	if mediaKind == "" {
		mediaKind = domain.MediaNone
	}

	msg := &domain.Message{
		ID:             uuid.New().String(),
		ChatID:         chatID,
		SenderID:       senderID,
		Content:        content,
		MediaRef:       mediaRef,
		MediaKind:      mediaKind,
		IsDisappearing: chat.IsDisappearing(),
		CreatedAt:      time.Now(),
	}

	if err := uc.msgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	event := domain.ChatEvent{
		Type:      domain.EventMessageCreated,
		ChatID:    msg.ChatID,
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		MediaRef:  msg.MediaRef,
		MediaKind: msg.MediaKind,
		Timestamp: msg.CreatedAt.Unix(),
	}
	if err := uc.fanout.Publish(ctx, event); err != nil {
		// 訊息已落地，事件投遞失敗只記 log
		logger.Log.Warn("publish created event failed", zap.String("message_id", msg.ID), zap.Error(err))
	}

	return msg, nil
}

// History 取得聊天室內尚未消失的訊息
func (uc *SendMessageUseCase) History(ctx context.Context, chatID, userID string) ([]domain.Message, error) {
	chat, err := uc.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if !pkg.Contains(chat.Participants, userID) {
		return nil, errprocess.Set("user is not a participant of chat " + chatID)
	}

	return uc.msgRepo.FindByChat(ctx, chatID)
}

// OpenDirectChat 取得或建立兩人的 1對1 聊天室
func (uc *SendMessageUseCase) OpenDirectChat(ctx context.Context, userA, userB string) (*domain.Chat, error) {
	chat, err := uc.chatRepo.FindOneDirectChat(ctx, userA, userB)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	chat = &domain.Chat{
		ID:           uuid.New().String(),
		ChatType:     domain.ChatTypeDirect,
		Participants: []string{userA, userB},
		CreatedAt:    time.Now().Unix(),
	}
	if err := uc.chatRepo.CreateChat(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}
