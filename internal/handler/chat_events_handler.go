package handler

import (
	"errors"

	"ai-devguide-be/internal/pkg/logger"
	"ai-devguide-be/internal/pkg/serverutils"
	"ai-devguide-be/internal/service"
	internalWS "ai-devguide-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ChatEventsHandler streams appended chat messages of one session over a
// websocket.
type ChatEventsHandler struct {
	chat   service.IChatService
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewChatEventsHandler(chat service.IChatService, hub *internalWS.Hub, log logger.ILogger) *ChatEventsHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ChatEventsHandler{chat: chat, hub: hub, logger: log}
}

func (h *ChatEventsHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/chat/:sessionId", h.ServeWs)
}

// ServeWs upgrades the request after checking the session exists.
func (h *ChatEventsHandler) ServeWs(c *fiber.Ctx) error {
	sessionId := c.Params("sessionId")
	if _, err := h.chat.GetSession(c.Context(), sessionId); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return serverutils.NotFound(err.Error())
		}
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("ChatEventsHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionId})
		internalWS.ServeWs(h.hub, conn, sessionId)
		h.logger.Info("ChatEventsHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionId})
	})(c)
}
