package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/GDGAOU/notification-service/internal/auth"
	"github.com/GDGAOU/notification-service/internal/model"
	"github.com/GDGAOU/notification-service/internal/repository"
	"github.com/GDGAOU/notification-service/internal/service"
)

type Handler struct {
	svc *service.NotificationService
	log *zap.SugaredLogger
}

func New(svc *service.NotificationService, log *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, log: log}
}

type publishRequest struct {
	RecipientID string         `json:"recipient_id"`
	Type        model.Type     `json:"type"`
	Message     string         `json:"message"`
	Metadata    map[string]any `json:"metadata"`
}

// Publish creates and fans out a notification. Used by the sibling services
// when a domain action (like, comment, share) targets a user.
func (h *Handler) Publish(c *fiber.Ctx) error {
	var req publishRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	n, err := h.svc.Publish(c.Context(), req.RecipientID, req.Type, req.Message, req.Metadata)
	if err != nil {
		if errors.Is(err, service.ErrInvalidNotification) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		h.log.Errorw("publish failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not publish notification")
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

// List returns the caller's notifications, newest first. Supports
// ?unread_only=true and ?type=<tag>.
func (h *Handler) List(c *fiber.Ctx) error {
	uid := auth.UserID(c)
	f := repository.ListFilter{
		UnreadOnly: c.QueryBool("unread_only"),
		Type:       model.Type(c.Query("type")),
	}
	if f.Type != "" && !f.Type.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown notification type")
	}
	notifs, err := h.svc.List(c.Context(), uid, f)
	if err != nil {
		h.log.Errorw("list failed", "recipient", uid, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not list notifications")
	}
	return c.JSON(notifs)
}

type markReadRequest struct {
	IDs []string `json:"ids"`
}

// MarkRead flips read flags on the caller's own notifications. Ids that
// belong to someone else, or don't exist, are silently ignored.
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	uid := auth.UserID(c)
	var req markReadRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := h.svc.MarkRead(c.Context(), req.IDs, uid); err != nil {
		h.log.Errorw("mark read failed", "recipient", uid, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not mark notifications read")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
