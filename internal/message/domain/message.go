package domain

import "time"

// MediaKind 訊息附帶媒體的種類
type MediaKind string

const (
	// MediaNone no media attached
	MediaNone MediaKind = "none"
	// MediaImage image reference
	MediaImage MediaKind = "image"
	// MediaVideo video reference
	MediaVideo MediaKind = "video"
)

// Message 表示一則聊天訊息
// 視圖欄位只由 ViewUseCase 寫入，刪除只由 Sweeper 執行
type Message struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	ChatID   string `gorm:"index:idx_messages_chat;not null" json:"chat_id"`
	SenderID string `gorm:"not null" json:"sender_id"`

	Content   string    `json:"content,omitempty"`
	MediaRef  string    `json:"media_ref,omitempty"`
	MediaKind MediaKind `gorm:"default:none" json:"media_kind"`

	// IsDisappearing 建立時由聊天室類型決定，之後不再變動
	IsDisappearing bool `gorm:"index:idx_messages_sweep" json:"is_disappearing"`
	// ViewedByRecipient 單調 false→true
	ViewedByRecipient bool       `gorm:"index:idx_messages_sweep" json:"viewed_by_recipient"`
	ViewedAt          *time.Time `json:"viewed_at,omitempty"`
	// ShouldDisappear 單調 false→true，Sweeper 判定後快取
	ShouldDisappear bool `gorm:"index:idx_messages_sweep" json:"should_disappear"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName gorm table name
func (Message) TableName() string {
	return "messages"
}
