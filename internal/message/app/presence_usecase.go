package app

import (
	"context"
	"time"

	"ephemeral_message_service/internal/message/domain"
	"ephemeral_message_service/internal/message/repository"
	"ephemeral_message_service/pkg/database"
	"ephemeral_message_service/pkg/logger"

	"go.uber.org/zap"
)

// SweepScheduler 在 leave 之後安排一次延遲的定向清掃
// 延遲只是讓 presence / view 的寫入先落地，正確性由週期性全域清掃保證
type SweepScheduler interface {
	Schedule(ctx context.Context, chatID string)
}

// PresenceUseCase 負責記錄用戶是否在聊天室內
type PresenceUseCase struct {
	presenceRepo repository.PresenceRepository
	scheduler    SweepScheduler
}

// NewPresenceUseCase init create presence use case
func NewPresenceUseCase(presenceRepo repository.PresenceRepository, scheduler SweepScheduler) *PresenceUseCase {
	return &PresenceUseCase{
		presenceRepo: presenceRepo,
		scheduler:    scheduler,
	}
}

// Enter 進入聊天室
// presence 寫入失敗只記 log，不阻擋呼叫方（只會延後消失，不影響正確性）
func (uc *PresenceUseCase) Enter(ctx context.Context, chatID, userID string) error {
	uc.upsert(ctx, chatID, userID, true)
	return nil
}

// Leave 離開聊天室，並安排一次延遲的定向清掃
func (uc *PresenceUseCase) Leave(ctx context.Context, chatID, userID string) error {
	uc.upsert(ctx, chatID, userID, false)

	if uc.scheduler != nil {
		uc.scheduler.Schedule(ctx, chatID)
	}
	return nil
}

func (uc *PresenceUseCase) upsert(ctx context.Context, chatID, userID string, isActive bool) {
	now := time.Now()
	err := uc.presenceRepo.Upsert(ctx, &domain.ChatPresence{
		ChatID:    chatID,
		UserID:    userID,
		IsActive:  isActive,
		LastSeen:  now,
		UpdatedAt: now,
	})
	if err != nil {
		logger.Log.Warn("presence upsert failed",
			zap.String("chat_id", chatID),
			zap.String("user_id", userID),
			zap.Bool("is_active", isActive),
			zap.Error(err),
		)
	}
}

// LocalSweepScheduler 行程內的延遲清掃，測試與單機部署用
type LocalSweepScheduler struct {
	delay   time.Duration
	sweeper *CleanupSweeper
}

// NewLocalSweepScheduler create LocalSweepScheduler
func NewLocalSweepScheduler(delay time.Duration, sweeper *CleanupSweeper) *LocalSweepScheduler {
	return &LocalSweepScheduler{delay: delay, sweeper: sweeper}
}

// Schedule 延遲 delay 後直接在行程內跑定向清掃
func (s *LocalSweepScheduler) Schedule(ctx context.Context, chatID string) {
	time.AfterFunc(s.delay, func() {
		if err := s.sweeper.RunSweepChat(context.Background(), chatID); err != nil {
			logger.Log.Warn("scheduled sweep failed", zap.String("chat_id", chatID), zap.Error(err))
		}
	})
}

// SweepDedupKey 同一聊天室待跑清掃的 redis 鍵，排程端 SetNX、清掃端完工後 Del
func SweepDedupKey(chatID string) string {
	return "sweep:pending:" + chatID
}

// QueueSweepScheduler 把清掃工作丟進 rabbitMQ，由 sweeper_service 消費
type QueueSweepScheduler struct {
	queue repository.SweepQueue
	// dedup 同一聊天室在 delay 內只排一次，快速進出不會塞爆佇列
	dedup database.RedisRepository[domain.SweepJob]
	delay time.Duration
}

// NewQueueSweepScheduler create QueueSweepScheduler，dedup 可為 nil
func NewQueueSweepScheduler(queue repository.SweepQueue, dedup database.RedisRepository[domain.SweepJob], delay time.Duration) *QueueSweepScheduler {
	return &QueueSweepScheduler{
		queue: queue,
		dedup: dedup,
		delay: delay,
	}
}

// Schedule 排程失敗只記 log：漏掉的定向清掃會被週期性清掃補上
func (s *QueueSweepScheduler) Schedule(ctx context.Context, chatID string) {
	job := domain.SweepJob{
		ChatID: chatID,
		FireAt: time.Now().Add(s.delay).Unix(),
	}

	if s.dedup != nil {
		ok, err := s.dedup.SetNX(ctx, SweepDedupKey(chatID), job, s.delay)
		if err == nil && !ok {
			// 已有待跑的清掃
			return
		}
	}

	if err := s.queue.Enqueue(job); err != nil {
		logger.Log.Warn("failed to enqueue sweep job", zap.String("chat_id", chatID), zap.Error(err))
	}
}
