package domain

// Action websocket request action
type Action string

const (
	// EnterChat websocket action enter_chat
	EnterChat Action = "enter_chat"
	// LeaveChat websocket action leave_chat
	LeaveChat Action = "leave_chat"

	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// ViewMessage websocket action view_message
	ViewMessage Action = "view_message"

	// NotifyEvent websocket action notify_event
	NotifyEvent Action = "notify_event"
)

// WSRequest websocket Request
type WSRequest struct {
	Action    string `json:"action"`
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
	MediaRef  string `json:"media_ref"`
	MediaKind string `json:"media_kind"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
