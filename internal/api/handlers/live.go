package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/sumgram/sumgram-backend/internal/listener"
)

// Live streams listener events to the browser over a websocket. The
// subscription is dropped when the client disconnects.
func Live(hub *listener.Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		id, events := hub.Subscribe()
		defer hub.Unsubscribe(id)

		for ev := range events {
			if err := c.WriteJSON(ev); err != nil {
				return
			}
		}
	})
}
