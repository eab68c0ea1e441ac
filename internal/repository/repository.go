package repository

import (
	"context"
	"errors"

	"github.com/GDGAOU/notification-service/internal/model"
)

// ErrPersistence wraps storage failures so callers can tell them apart from
// validation errors.
var ErrPersistence = errors.New("persistence error")

// ListFilter narrows ListByRecipient. Zero value means everything.
type ListFilter struct {
	UnreadOnly bool
	Type       model.Type
}

// Store is the persistence collaborator for notifications. MarkRead is scoped
// to the recipient: ids belonging to another user are silently ignored.
type Store interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, f ListFilter) ([]model.Notification, error)
	MarkRead(ctx context.Context, ids []string, recipientID string) error
}
