package api

import (
	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/websocket/v2"

	"github.com/sumgram/sumgram-backend/internal/api/handlers"
	"github.com/sumgram/sumgram-backend/internal/listener"
	"github.com/sumgram/sumgram-backend/internal/services"
)

// SetupRoutes configures all API routes. hub may be nil when no
// listener session is configured; the websocket surface is then absent.
func SetupRoutes(app *fiber.App, svc *services.Services, store *fibersession.Store, hub *listener.Hub) {
	app.Get("/", handlers.Index(svc, store))

	api := app.Group("/api/v1")

	// Auth flow
	api.Post("/auth/phone", handlers.SubmitPhone(svc, store))
	api.Post("/auth/code", handlers.SubmitCode(svc, store))
	api.Get("/auth/status", handlers.AuthStatus(store))
	api.Post("/auth/logout", handlers.Logout(svc, store))

	// Dialog listings
	api.Get("/dashboard", handlers.GetDashboard(svc, store))
	api.Get("/dashboard/cached", handlers.CachedDashboard(store))

	// Messages and summaries
	api.Get("/sources/:id/messages", handlers.GetSourceMessages(svc, store))
	api.Post("/summarize", handlers.SummarizeSource(svc, store))

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "sumgram-backend",
		})
	})

	if hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/live", handlers.Live(hub))
	}
}
