package repository

import (
	"context"

	"ephemeral_message_service/internal/message/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ViewRepository definition message view store (append-only)
type ViewRepository interface {
	AutoMigrate() error
	// Insert 重複的 (message_id, viewer_id) 直接吞掉，回傳是否為首次寫入
	Insert(ctx context.Context, view *domain.MessageView) (bool, error)
	FindByMessage(ctx context.Context, messageID string) ([]domain.MessageView, error)
}

type viewRepository struct {
	db *gorm.DB
}

// NewViewRepository create a ViewRepository
func NewViewRepository(db *gorm.DB) ViewRepository {
	return &viewRepository{db: db}
}

func (r *viewRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.MessageView{})
}

// Insert 以 ON CONFLICT DO NOTHING 把唯一鍵衝突當成功處理
func (r *viewRepository) Insert(ctx context.Context, view *domain.MessageView) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(view)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *viewRepository) FindByMessage(ctx context.Context, messageID string) ([]domain.MessageView, error) {
	var views []domain.MessageView
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Find(&views).Error
	if err != nil {
		return nil, err
	}
	return views, nil
}
