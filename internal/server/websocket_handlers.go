package server

import (
	"encoding/json"

	"scribble/internal/middleware"
	"scribble/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketUpgradeRequired rejects plain HTTP requests to the socket endpoint.
func (s *Server) WebsocketUpgradeRequired(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired,
			models.NewValidationError("WebSocket upgrade required"))
	}
	return c.Next()
}

// WebsocketHandler streams the current user's notifications.
// @Summary Notification stream
// @Description Upgrades to a WebSocket that receives post_created and new_follower events
// @Tags notifications
// @Success 101 "Switching protocols"
// @Failure 426 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(localsUserID).(uint)
		if userID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("notification socket rejected", "user_id", userID, "error", err)
			msg, _ := json.Marshal(fiber.Map{"error": err.Error()})
			_ = conn.WriteMessage(websocket.TextMessage, msg)
			_ = conn.Close()
			return
		}

		middleware.Logger.Debug("notification socket connected", "user_id", userID)
		go client.WritePump()
		client.ReadPump()
	})
}
