package repository

import (
	"context"
	"errors"
	"time"

	"ephemeral_message_service/internal/message/domain"

	"gorm.io/gorm"
)

// MessageRepository definition message store
type MessageRepository interface {
	AutoMigrate() error
	Create(ctx context.Context, msg *domain.Message) error
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	FindByChat(ctx context.Context, chatID string) ([]domain.Message, error)
	// MarkViewed 只在 viewed_by_recipient 還是 false 時寫入，回傳是否有轉換
	MarkViewed(ctx context.Context, messageID string, viewedAt time.Time) (bool, error)
	// FindSweepCandidates chatID 為空字串時掃全部聊天室
	FindSweepCandidates(ctx context.Context, chatID string) ([]domain.Message, error)
	// DeleteEligible 在同一交易內標記 should_disappear 並刪除，回傳是否真的刪到
	DeleteEligible(ctx context.Context, messageID string) (bool, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository create a MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Message{})
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	var m domain.Message
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *messageRepository) FindByChat(ctx context.Context, chatID string) ([]domain.Message, error) {
	var msgs []domain.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at asc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkViewed guarded update，重複套用不改變狀態
func (r *messageRepository) MarkViewed(ctx context.Context, messageID string, viewedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND viewed_by_recipient = ?", messageID, false).
		Updates(map[string]interface{}{
			"viewed_by_recipient": true,
			"viewed_at":           viewedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindSweepCandidates 已被看過、尚未標記的消失訊息
func (r *messageRepository) FindSweepCandidates(ctx context.Context, chatID string) ([]domain.Message, error) {
	q := r.db.WithContext(ctx).
		Where("is_disappearing = ? AND viewed_by_recipient = ? AND should_disappear = ?", true, true, false)
	if chatID != "" {
		q = q.Where("chat_id = ?", chatID)
	}

	var msgs []domain.Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// DeleteEligible 兩個 Sweeper 撞在一起時，後到者刪到 0 rows，視為成功
func (r *messageRepository) DeleteEligible(ctx context.Context, messageID string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Message{}).
			Where("id = ? AND should_disappear = ?", messageID, false).
			Update("should_disappear", true)
		if res.Error != nil {
			return res.Error
		}

		// 訊息刪除時一併帶走 view 事實
		if err := tx.Where("message_id = ?", messageID).Delete(&domain.MessageView{}).Error; err != nil {
			return err
		}

		del := tx.Where("id = ?", messageID).Delete(&domain.Message{})
		if del.Error != nil {
			return del.Error
		}
		deleted = del.RowsAffected > 0
		return nil
	})
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return deleted, nil
}
