package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GDGAOU/notification-service/internal/model"
	"github.com/GDGAOU/notification-service/internal/repository"
)

// faultStore fails every write; used to prove nothing is pushed when
// persistence fails.
type faultStore struct{}

func (faultStore) Create(context.Context, *model.Notification) error {
	return repository.ErrPersistence
}

func (faultStore) ListByRecipient(context.Context, string, repository.ListFilter) ([]model.Notification, error) {
	return nil, repository.ErrPersistence
}

func (faultStore) MarkRead(context.Context, []string, string) error {
	return repository.ErrPersistence
}

// recordingRouter captures Deliver calls.
type recordingRouter struct {
	delivered []model.Notification
}

func (r *recordingRouter) Deliver(_ string, n model.Notification) {
	r.delivered = append(r.delivered, n)
}

func validMetadata() map[string]any {
	return map[string]any{"discount_id": "d-1", "liked_by": "user-2"}
}

func TestPublishPersistsThenDelivers(t *testing.T) {
	store := repository.NewMemoryStore()
	router := &recordingRouter{}
	svc := New(store, router, zap.NewNop().Sugar())

	n, err := svc.Publish(context.Background(), "user-1", model.TypeNewLike, "someone liked your discount", validMetadata())
	require.NoError(t, err)

	assert.NotEmpty(t, n.ID)
	assert.False(t, n.Read)
	assert.False(t, n.CreatedAt.IsZero())

	require.Len(t, router.delivered, 1)
	assert.Equal(t, n.ID, router.delivered[0].ID, "delivered notification must carry the persisted id")

	list, err := store.ListByRecipient(context.Background(), "user-1", repository.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestPublishNeverPushesWhenPersistenceFails(t *testing.T) {
	router := &recordingRouter{}
	svc := New(faultStore{}, router, zap.NewNop().Sugar())

	_, err := svc.Publish(context.Background(), "user-1", model.TypeNewLike, "msg", validMetadata())
	require.ErrorIs(t, err, repository.ErrPersistence)
	assert.Empty(t, router.delivered, "no push may happen for a notification the store doesn't have")
}

func TestPublishValidation(t *testing.T) {
	tests := []struct {
		name        string
		recipientID string
		typ         model.Type
		metadata    map[string]any
	}{
		{
			name:        "empty recipient",
			recipientID: "",
			typ:         model.TypeNewLike,
			metadata:    validMetadata(),
		},
		{
			name:        "unknown type",
			recipientID: "user-1",
			typ:         model.Type("new_follower"),
			metadata:    validMetadata(),
		},
		{
			name:        "missing metadata key",
			recipientID: "user-1",
			typ:         model.TypeNewComment,
			metadata:    map[string]any{"discount_id": "d-1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := &recordingRouter{}
			svc := New(repository.NewMemoryStore(), router, zap.NewNop().Sugar())

			_, err := svc.Publish(context.Background(), tt.recipientID, tt.typ, "msg", tt.metadata)
			require.ErrorIs(t, err, ErrInvalidNotification)
			assert.Empty(t, router.delivered)
		})
	}
}

