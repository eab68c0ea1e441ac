package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/GDGAOU/notification-service/internal/model"
)

// MemoryStore keeps notifications in process memory. Used in tests and local
// runs without a Mongo instance.
type MemoryStore struct {
	mu    sync.Mutex
	seq   int
	last  time.Time
	items []model.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Create(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	n.ID = "mem-" + strconv.Itoa(s.seq)
	n.Read = false
	now := time.Now().UTC()
	// keep created_at strictly increasing so newest-first ordering is total
	if !now.After(s.last) {
		now = s.last.Add(time.Nanosecond)
	}
	s.last = now
	n.CreatedAt = now
	s.items = append(s.items, *n)
	return nil
}

func (s *MemoryStore) ListByRecipient(_ context.Context, recipientID string, f ListFilter) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, 0)
	for _, n := range s.items {
		if n.RecipientID != recipientID {
			continue
		}
		if f.UnreadOnly && n.Read {
			continue
		}
		if f.Type != "" && n.Type != f.Type {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, ids []string, recipientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for i := range s.items {
		if s.items[i].RecipientID != recipientID {
			continue
		}
		if _, ok := want[s.items[i].ID]; ok {
			s.items[i].Read = true
		}
	}
	return nil
}
