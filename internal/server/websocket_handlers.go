package server

import (
	"photoshare/internal/models"
	"photoshare/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedUpgrade rejects non-websocket requests to the feed endpoint.
func (s *Server) FeedUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(models.ErrorResponse{Message: "Websocket upgrade required"})
	}
	c.Locals("viewer", viewer(c))
	return c.Next()
}

// FeedHandler streams realtime photo events. Anonymous viewers are allowed.
// @Summary Realtime photo feed
// @Description Websocket stream of photo, comment and like events
// @Tags feed
// @Router /ws/feed [get]
func (s *Server) FeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		viewerID, _ := conn.Locals("viewer").(models.ID)

		client, err := s.hub.Register(viewerID, conn)
		if err != nil {
			observability.Logger.Warn("feed registration rejected", "user_id", viewerID.String(), "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"message":"`+err.Error()+`"}}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
