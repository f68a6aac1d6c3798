package app

import (
	"context"
	"errors"
	"time"

	"ephemeral_message_service/internal/message/domain"
	"ephemeral_message_service/internal/message/repository"
	"ephemeral_message_service/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CleanupSweeper 重新計算刪除資格並執行刪除，刪除只有這裡會做
// 每一趟都冪等：重跑對已刪訊息沒有效果也不報錯
type CleanupSweeper struct {
	msgRepo      repository.MessageRepository
	chatRepo     repository.ChatRepository
	presenceRepo repository.PresenceRepository
	fanout       *NotificationFanout
}

// NewCleanupSweeper init create cleanup sweeper
func NewCleanupSweeper(
	msgRepo repository.MessageRepository,
	chatRepo repository.ChatRepository,
	presenceRepo repository.PresenceRepository,
	fanout *NotificationFanout,
) *CleanupSweeper {
	return &CleanupSweeper{
		msgRepo:      msgRepo,
		chatRepo:     chatRepo,
		presenceRepo: presenceRepo,
		fanout:       fanout,
	}
}

// RunSweep 全域清掃，掃所有聊天室的候選訊息
func (s *CleanupSweeper) RunSweep(ctx context.Context) error {
	return s.sweep(ctx, "")
}

// RunSweepChat 定向清掃單一聊天室
func (s *CleanupSweeper) RunSweepChat(ctx context.Context, chatID string) error {
	return s.sweep(ctx, chatID)
}

// sweep 單一候選失敗只記 log，整趟繼續跑
func (s *CleanupSweeper) sweep(ctx context.Context, chatID string) error {
	candidates, err := s.msgRepo.FindSweepCandidates(ctx, chatID)
	if err != nil {
		return err
	}

	// 同一趟內聊天室的參與者/在場名單只查一次
	type chatState struct {
		participants []string
		presences    []domain.ChatPresence
	}
	states := make(map[string]*chatState)

	for _, msg := range candidates {
		state, ok := states[msg.ChatID]
		if !ok {
			chat, err := s.chatRepo.FindByID(ctx, msg.ChatID)
			if err != nil {
				if !errors.Is(err, mongo.ErrNoDocuments) {
					logger.Log.Warn("sweep: load chat failed", zap.String("chat_id", msg.ChatID), zap.Error(err))
				}
				continue
			}

			presences, err := s.presenceRepo.FindByChat(ctx, msg.ChatID)
			if err != nil {
				logger.Log.Warn("sweep: load presence failed", zap.String("chat_id", msg.ChatID), zap.Error(err))
				continue
			}

			state = &chatState{participants: chat.Participants, presences: presences}
			states[msg.ChatID] = state
		}

		if !ShouldDisappear(&msg, state.participants, state.presences) {
			continue
		}

		deleted, err := s.msgRepo.DeleteEligible(ctx, msg.ID)
		if err != nil {
			logger.Log.Warn("sweep: delete failed", zap.String("message_id", msg.ID), zap.Error(err))
			continue
		}
		if !deleted {
			// 其他 Sweeper 先刪掉了
			continue
		}

		event := domain.ChatEvent{
			Type:      domain.EventMessageDeleted,
			ChatID:    msg.ChatID,
			MessageID: msg.ID,
			Timestamp: time.Now().Unix(),
		}
		if err := s.fanout.Publish(ctx, event); err != nil {
			logger.Log.Warn("publish deleted event failed",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}
