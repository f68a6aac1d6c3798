package router

import (
	"context"

	"ephemeral_message_service/internal/message/app"
	"ephemeral_message_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 注册訊息相關的路由
func RegisterRoutes(r *fiber.App, httpHandler *app.MessageHTTPHandler, wsHandler *app.ChatWebsocketHandler) {
	r.Use(middlewares.JWTMiddleware())

	r.Post("/chats", httpHandler.OpenDirectChat)
	r.Post("/chats/:chat_id/messages", httpHandler.SendMessage)
	r.Get("/chats/:chat_id/messages", httpHandler.History)
	r.Post("/chats/:chat_id/enter", httpHandler.EnterChat)
	r.Post("/chats/:chat_id/leave", httpHandler.LeaveChat)
	r.Post("/messages/:message_id/view", httpHandler.ViewMessage)

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHandler.HandleConnection(context.Background(), c)
	}))
}
