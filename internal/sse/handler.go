package sse

import (
	"bufio"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/GDGAOU/notification-service/internal/auth"
	"github.com/GDGAOU/notification-service/internal/hub"
)

type Handler struct {
	hub     *hub.Hub
	ping    time.Duration
	sendBuf int
	log     *zap.SugaredLogger
}

func NewHandler(h *hub.Hub, ping time.Duration, sendBuf int, log *zap.SugaredLogger) *Handler {
	return &Handler{hub: h, ping: ping, sendBuf: sendBuf, log: log}
}

// Stream is the push endpoint. The auth middleware has already established
// the caller's identity; without it the connection fails closed with 401
// before any registration happens.
func (h *Handler) Stream(c *fiber.Ctx) error {
	uid := auth.UserID(c)
	if uid == "" {
		return fiber.ErrUnauthorized
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	sub := hub.NewSubscriber(uid, h.sendBuf)
	h.hub.Register(sub)
	conn := NewConnection(h.hub, sub, h.ping, h.log)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		conn.Run(w)
	}))
	return nil
}
