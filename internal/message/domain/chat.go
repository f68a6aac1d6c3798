package domain

// ChatType definition chat type
type ChatType string

const (
	// ChatTypeDirect 1對1，走消失訊息策略
	ChatTypeDirect ChatType = "direct"
	// ChatTypeGroup 群組，訊息不消失
	ChatTypeGroup ChatType = "group"
	// ChatTypeCommunity 社群，訊息不消失
	ChatTypeCommunity ChatType = "community"
)

// Chat definition chat room
type Chat struct {
	ID           string   `bson:"_id,omitempty" json:"id"`
	ChatType     ChatType `bson:"chat_type" json:"chat_type"`
	Participants []string `bson:"participants,omitempty" json:"participants"`
	CreatedAt    int64    `bson:"created_at,omitempty" json:"created_at"`
}

// IsDisappearing 只有 direct 聊天室套用消失策略
func (c *Chat) IsDisappearing() bool {
	return c.ChatType == ChatTypeDirect
}
