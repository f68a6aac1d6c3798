package domain

// EventType fan-out 事件種類
type EventType string

const (
	// EventMessageCreated a message was sent
	EventMessageCreated EventType = "message_created"
	// EventMessageViewed recipient first viewed a message
	EventMessageViewed EventType = "message_viewed"
	// EventMessageDeleted the sweeper removed a message
	EventMessageDeleted EventType = "message_deleted"
)

// ChatEvent fan-out 的事件封包
// 傳遞 at-least-once 且不保證順序，訂閱端需以 MessageID 去重，
// 收到 deleted 而沒收過 created 也視為合法
type ChatEvent struct {
	Type      EventType `json:"type"`
	ChatID    string    `json:"chat_id"`
	MessageID string    `json:"message_id"`
	SenderID  string    `json:"sender_id,omitempty"`
	ViewerID  string    `json:"viewer_id,omitempty"`
	Content   string    `json:"content,omitempty"`
	MediaRef  string    `json:"media_ref,omitempty"`
	MediaKind MediaKind `json:"media_kind,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// SweepJob 離開聊天室後排入佇列的定向清掃工作
type SweepJob struct {
	ChatID string `json:"chat_id"`
	// FireAt unix 秒，消費端需等到此時間才執行
	FireAt int64 `json:"fire_at"`
}
