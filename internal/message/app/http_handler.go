package app

import (
	"ephemeral_message_service/internal/message/domain"
	"ephemeral_message_service/pkg/logger"
	"ephemeral_message_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MessageHTTPHandler 處理訊息相關的 HTTP 請求
type MessageHTTPHandler struct {
	messageUC  *SendMessageUseCase
	viewUC     *ViewUseCase
	presenceUC *PresenceUseCase
}

// NewMessageHTTPHandler 創建新的 MessageHTTPHandler
func NewMessageHTTPHandler(
	messageUC *SendMessageUseCase,
	viewUC *ViewUseCase,
	presenceUC *PresenceUseCase,
) *MessageHTTPHandler {
	return &MessageHTTPHandler{
		messageUC:  messageUC,
		viewUC:     viewUC,
		presenceUC: presenceUC,
	}
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(middlewares.TokenUserID).(string)
	return id
}

// OpenDirectChat 取得或建立 1對1 聊天室
// @Summary 取得或建立 1對1 聊天室
// @Tags Chats
// @Router /chats [post]
func (h *MessageHTTPHandler) OpenDirectChat(c *fiber.Ctx) error {
	type request struct {
		PeerID string `json:"peer_id"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil || req.PeerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	chat, err := h.messageUC.OpenDirectChat(c.Context(), userID(c), req.PeerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(chat)
}

// SendMessage 傳送訊息
// @Summary 傳送訊息
// @Tags Messages
// @Router /chats/{chat_id}/messages [post]
func (h *MessageHTTPHandler) SendMessage(c *fiber.Ctx) error {
	type request struct {
		Content   string `json:"content"`
		MediaRef  string `json:"media_ref"`
		MediaKind string `json:"media_kind"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.Content == "" && req.MediaRef == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "empty message"})
	}

	chatID := c.Params("chat_id")
	logger.Log.Debug("SendMessage", zap.String("chat_id", chatID), zap.String("sender", userID(c)))

	msg, err := h.messageUC.Execute(c.Context(), chatID, userID(c), req.Content, req.MediaRef, domain.MediaKind(req.MediaKind))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(msg)
}

// History 取得聊天室內尚未消失的訊息
// @Summary 取得聊天室訊息
// @Tags Messages
// @Router /chats/{chat_id}/messages [get]
func (h *MessageHTTPHandler) History(c *fiber.Ctx) error {
	msgs, err := h.messageUC.History(c.Context(), c.Params("chat_id"), userID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

// EnterChat 進入聊天室
// @Summary 進入聊天室
// @Tags Presence
// @Router /chats/{chat_id}/enter [post]
func (h *MessageHTTPHandler) EnterChat(c *fiber.Ctx) error {
	if err := h.presenceUC.Enter(c.Context(), c.Params("chat_id"), userID(c)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "entered"})
}

// LeaveChat 離開聊天室
// @Summary 離開聊天室
// @Tags Presence
// @Router /chats/{chat_id}/leave [post]
func (h *MessageHTTPHandler) LeaveChat(c *fiber.Ctx) error {
	if err := h.presenceUC.Leave(c.Context(), c.Params("chat_id"), userID(c)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "left"})
}

// ViewMessage 記錄已看
// @Summary 記錄已看
// @Tags Messages
// @Router /messages/{message_id}/view [post]
func (h *MessageHTTPHandler) ViewMessage(c *fiber.Ctx) error {
	if err := h.viewUC.MarkViewed(c.Context(), c.Params("message_id"), userID(c)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "viewed"})
}
