package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GDGAOU/notification-service/internal/metrics"
	"github.com/GDGAOU/notification-service/internal/model"
	"github.com/GDGAOU/notification-service/internal/repository"
)

var ErrInvalidNotification = errors.New("invalid notification")

// Router is what the publisher needs from the fan-out side.
type Router interface {
	Deliver(recipientID string, n model.Notification)
}

// NotificationService persists a notification and then hands it to the router. The
// store is the source of truth: nothing is ever pushed before it is written,
// and a failed push is recoverable through the next REST fetch.
type NotificationService struct {
	store  repository.Store
	router Router
	log    *zap.SugaredLogger
}

func New(store repository.Store, router Router, log *zap.SugaredLogger) *NotificationService {
	return &NotificationService{store: store, router: router, log: log}
}

func (p *NotificationService) Publish(ctx context.Context, recipientID string, t model.Type, message string, metadata map[string]any) (*model.Notification, error) {
	if recipientID == "" {
		return nil, fmt.Errorf("%w: empty recipient", ErrInvalidNotification)
	}
	if err := t.ValidateMetadata(metadata); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}

	n := &model.Notification{
		RecipientID: recipientID,
		Type:        t,
		Message:     message,
		Metadata:    metadata,
	}
	if err := p.store.Create(ctx, n); err != nil {
		return nil, err
	}
	metrics.Published.WithLabelValues(string(t)).Inc()

	p.router.Deliver(recipientID, *n)
	return n, nil
}

// List returns the recipient's notifications, newest first.
func (p *NotificationService) List(ctx context.Context, recipientID string, f repository.ListFilter) ([]model.Notification, error) {
	return p.store.ListByRecipient(ctx, recipientID, f)
}

// MarkRead flips read flags for the recipient's own notifications.
func (p *NotificationService) MarkRead(ctx context.Context, ids []string, recipientID string) error {
	return p.store.MarkRead(ctx, ids, recipientID)
}
