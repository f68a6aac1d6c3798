package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ephemeral_message_service/internal/message/domain"
	"ephemeral_message_service/pkg/logger"
	"ephemeral_message_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// ChatWebsocketHandler 可包含所有需要的 UseCase
type ChatWebsocketHandler struct {
	messageUC  *SendMessageUseCase
	viewUC     *ViewUseCase
	presenceUC *PresenceUseCase
	fanout     *NotificationFanout
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	messageUC *SendMessageUseCase,
	viewUC *ViewUseCase,
	presenceUC *PresenceUseCase,
	fanout *NotificationFanout,
) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		messageUC:  messageUC,
		viewUC:     viewUC,
		presenceUC: presenceUC,
		fanout:     fanout,
	}
}

// wsSession 單一連線的狀態，subCancel 保護退訂
type wsSession struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu        sync.Mutex
	subCancel context.CancelFunc
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	tokenUser := conn.Locals(middlewares.TokenUserID)
	userID, ok := tokenUser.(string)
	if !ok || userID == "" {
		logger.Log.Warn("websocket without user identity")
		conn.Close()
		return
	}
	logger.Log.Info("websocket handle userID", zap.String("userID", userID))

	sess := &wsSession{conn: conn}

	ticker := time.NewTicker(10 * time.Minute)
	ctxClose, cancel := context.WithCancel(context.Background())

	defer func() {
		ticker.Stop()
		logger.Log.Info("websocket close", zap.String("userID", userID))
		sess.unsubscribe()
		conn.Close()
		cancel()
	}()

	//client發出close
	//fiber會自動處理(在read msg 回傳err),故需要SetCloseHandler另外接出
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	//server發出ping之後client連線正常會回pong
	conn.SetPongHandler(func(appData string) error {
		logger.Log.Infof("Received PONG:", appData)
		return nil
	})

	//client發出ping
	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	// 定期發送 Ping
	go func() {
		for {
			select {
			case <-ticker.C:
				pingMsg := "ping message"
				if err := conn.WriteMessage(websocket.PingMessage, []byte(pingMsg)); err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("Connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}

		if mt != websocket.TextMessage {
			h.sendError(sess, "unknown message types ")
			continue
		}
		h.textMessageAction(ctx, sess, userID, message)
	}
}

func (h *ChatWebsocketHandler) textMessageAction(ctx context.Context, sess *wsSession, userID string, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.Log.Errorf("json unmarshal error:", err)
		return
	}

	resp := domain.WSResponse{Action: req.Action, Success: false, Payload: map[string]interface{}{}}
	switch req.Action {
	//進入聊天室，訂閱事件流
	case string(domain.EnterChat):
		if err := h.presenceUC.Enter(ctx, req.ChatID, userID); err != nil {
			resp.Error = err.Error()
			break
		}

		// 換訂閱前先退掉舊的
		sess.unsubscribe()
		subCtx, cancel := context.WithCancel(context.Background())
		sess.setSubCancel(cancel)

		if err := h.fanout.Subscribe(subCtx, req.ChatID, func(event domain.ChatEvent) {
			h.sendResponse(sess, eventResponse(event))
		}); err != nil {
			resp.Error = err.Error()
			break
		}

		// 進房時帶回還留著的訊息
		msgs, err := h.messageUC.History(ctx, req.ChatID, userID)
		if err != nil {
			resp.Error = err.Error()
			break
		}
		resp.Success = true
		resp.Payload["messages"] = msgs

	//離開聊天室，停止投遞
	case string(domain.LeaveChat):
		sess.unsubscribe()
		if err := h.presenceUC.Leave(ctx, req.ChatID, userID); err != nil {
			resp.Error = err.Error()
			break
		}
		resp.Success = true
		resp.Payload["leave_chat"] = req.ChatID

	//傳送訊息，寫入db並發布事件
	case string(domain.SendMessage):
		m, err := h.messageUC.Execute(ctx, req.ChatID, userID, req.Content, req.MediaRef, domain.MediaKind(req.MediaKind))
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["message_id"] = m.ID
		}

	//記錄已看
	case string(domain.ViewMessage):
		err := h.viewUC.MarkViewed(ctx, req.MessageID, userID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
		}

	default:
		h.sendError(sess, "unknown action")
		return
	}

	if resp.Error != "" {
		logger.Log.Error("websocket err ", zap.String("UserID", userID), zap.String("Action", req.Action), zap.String("err", resp.Error))
	}
	h.sendResponse(sess, resp)
}

// eventResponse fan-out 事件轉成推給前端的封包
func eventResponse(event domain.ChatEvent) domain.WSResponse {
	return domain.WSResponse{
		Action:  string(domain.NotifyEvent),
		Success: true,
		Payload: map[string]interface{}{
			"type":       string(event.Type),
			"chat_id":    event.ChatID,
			"message_id": event.MessageID,
			"sender_id":  event.SenderID,
			"viewer_id":  event.ViewerID,
			"content":    event.Content,
			"media_ref":  event.MediaRef,
			"media_kind": string(event.MediaKind),
			"timestamp":  event.Timestamp,
		},
	}
}

// sendResponse - 發送 JSON 給前端
// 訂閱 goroutine 跟 read loop 都會寫，需要鎖
func (h *ChatWebsocketHandler) sendResponse(sess *wsSession, resp domain.WSResponse) {
	b, _ := json.Marshal(resp)

	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	if err := sess.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		logger.Log.Errorf("write message error:", err)
	}
}

func (h *ChatWebsocketHandler) sendError(sess *wsSession, errorMsg string) {
	resp := domain.WSResponse{
		Action:  "error",
		Success: false,
		Payload: map[string]interface{}{
			"error": errorMsg,
		},
	}
	h.sendResponse(sess, resp)
}

func (s *wsSession) setSubCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subCancel = cancel
}

func (s *wsSession) unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subCancel != nil {
		s.subCancel()
		s.subCancel = nil
	}
}
