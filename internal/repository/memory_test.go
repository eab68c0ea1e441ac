package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GDGAOU/notification-service/internal/model"
)

func create(t *testing.T, s Store, recipient string, typ model.Type) *model.Notification {
	t.Helper()
	n := &model.Notification{
		RecipientID: recipient,
		Type:        typ,
		Message:     "msg",
		Metadata:    map[string]any{"discount_id": "d-1"},
	}
	require.NoError(t, s.Create(context.Background(), n))
	return n
}

func TestListByRecipientNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	first := create(t, s, "user-1", model.TypeNewDiscount)
	second := create(t, s, "user-1", model.TypeNewLike)
	create(t, s, "user-2", model.TypeNewLike)

	list, err := s.ListByRecipient(context.Background(), "user-1", ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestListFilters(t *testing.T) {
	s := NewMemoryStore()
	liked := create(t, s, "user-1", model.TypeNewLike)
	discount := create(t, s, "user-1", model.TypeNewDiscount)
	require.NoError(t, s.MarkRead(context.Background(), []string{liked.ID}, "user-1"))

	unread, err := s.ListByRecipient(context.Background(), "user-1", ListFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, discount.ID, unread[0].ID)

	likes, err := s.ListByRecipient(context.Background(), "user-1", ListFilter{Type: model.TypeNewLike})
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, liked.ID, likes[0].ID)
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	s := NewMemoryStore()
	theirs := create(t, s, "user-2", model.TypeNewLike)

	// user-1 tries to mark user-2's notification read
	require.NoError(t, s.MarkRead(context.Background(), []string{theirs.ID}, "user-1"))

	list, err := s.ListByRecipient(context.Background(), "user-2", ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Read, "a caller must not flip another user's read flag")
}

func TestMarkReadIgnoresUnknownIDsAndIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	n := create(t, s, "user-1", model.TypeNewLike)

	require.NoError(t, s.MarkRead(context.Background(), []string{n.ID, "no-such-id"}, "user-1"))
	require.NoError(t, s.MarkRead(context.Background(), []string{n.ID}, "user-1"))

	list, err := s.ListByRecipient(context.Background(), "user-1", ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Read)
}
