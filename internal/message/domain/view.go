package domain

import "time"

// MessageView 表示「viewer V 在時間 T 看過 message M」的事實
// (message_id, viewer_id) 唯一，只新增不更新
type MessageView struct {
	MessageID string    `gorm:"primaryKey;type:uuid" json:"message_id"`
	ViewerID  string    `gorm:"primaryKey" json:"viewer_id"`
	ViewedAt  time.Time `json:"viewed_at"`
}

// TableName gorm table name
func (MessageView) TableName() string {
	return "message_views"
}
