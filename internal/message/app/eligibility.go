package app

import (
	"ephemeral_message_service/internal/message/domain"
)

// ShouldDisappear 純判定函式，不碰儲存層
// 消失訊息在「收件人已看過」且「所有參與者都已離開聊天室」後才可刪除。
// 參與者沒有 presence 紀錄代表從未進過聊天室，視為尚未離開，訊息不可刪
// （收件人必須進過才看得到訊息，所以這條件不會卡住合法的刪除）。
func ShouldDisappear(msg *domain.Message, participants []string, presences []domain.ChatPresence) bool {
	if !msg.IsDisappearing || !msg.ViewedByRecipient {
		return false
	}

	active := make(map[string]bool, len(presences))
	for _, p := range presences {
		active[p.UserID] = p.IsActive
	}

	for _, userID := range participants {
		isActive, ok := active[userID]
		if !ok || isActive {
			return false
		}
	}
	return true
}
