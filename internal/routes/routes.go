package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GDGAOU/notification-service/internal/auth"
	"github.com/GDGAOU/notification-service/internal/handler"
	"github.com/GDGAOU/notification-service/internal/sse"
)

func Register(app *fiber.App, h *handler.Handler, stream *sse.Handler, v *auth.Validator) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1/notifications", auth.Middleware(v))

	api.Post("/", h.Publish)
	api.Get("/", h.List)
	api.Post("/read", h.MarkRead)
	api.Get("/stream", stream.Stream)
}
