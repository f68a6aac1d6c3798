package domain

import "time"

// ChatPresence 表示「user U 目前是否在 chat C 裡面」
// (chat_id, user_id) 唯一，同一 user 併發寫入時 last-writer-wins
type ChatPresence struct {
	ChatID    string    `json:"chat_id"`
	UserID    string    `json:"user_id"`
	IsActive  bool      `json:"is_active"`
	LastSeen  time.Time `json:"last_seen"`
	UpdatedAt time.Time `json:"updated_at"`
}
