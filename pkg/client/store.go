package client

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ToastFunc is called once for each newly push-delivered notification so the
// embedding UI can raise a transient, dismissable alert.
type ToastFunc func(Notification)

// Store reconciles the REST snapshot and the push stream into one local view.
// The unread count is derived: it is recomputed from the list after every
// mutation and never adjusted independently. Ordering is always newest
// created_at first, regardless of arrival order.
//
// Methods are safe to call from the stream listener goroutine and the
// application concurrently.
type Store struct {
	mu      sync.Mutex
	api     *Client
	items   []Notification
	unread  int
	onToast ToastFunc
}

func NewStore(api *Client, onToast ToastFunc) *Store {
	return &Store{api: api, onToast: onToast}
}

// FetchAll replaces the entire local list with the REST snapshot. Called on
// mount and after reconnects; it is the only reconciliation point for drift
// accumulated while disconnected.
func (s *Store) FetchAll(ctx context.Context) error {
	list, err := s.api.List(ctx)
	if err != nil {
		return fmt.Errorf("fetch notifications: %w", err)
	}
	s.mu.Lock()
	s.items = list
	s.resort()
	s.recount()
	s.mu.Unlock()
	return nil
}

// OnPushEvent merges one push-delivered notification into the local view.
// A notification whose id is already held locally is kept as a single copy
// and does not change the unread count; only fresh arrivals raise a toast.
func (s *Store) OnPushEvent(n Notification) {
	s.mu.Lock()
	for _, have := range s.items {
		if have.ID == n.ID {
			s.mu.Unlock()
			return
		}
	}
	s.items = append([]Notification{n}, s.items...)
	s.resort()
	s.recount()
	toast := s.onToast
	s.mu.Unlock()

	if toast != nil {
		toast(n)
	}
}

// MarkRead optimistically flips local read flags, then asks the server. If
// the server call fails the local flip is not rolled back; instead the store
// forces a full refetch so the next view reflects the server's truth.
func (s *Store) MarkRead(ctx context.Context, ids []string) error {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	s.mu.Lock()
	for i := range s.items {
		if _, ok := want[s.items[i].ID]; ok {
			s.items[i].Read = true
		}
	}
	s.recount()
	s.mu.Unlock()

	if err := s.api.MarkRead(ctx, ids); err != nil {
		if ferr := s.FetchAll(ctx); ferr != nil {
			return fmt.Errorf("mark read: %w (resync also failed: %v)", err, ferr)
		}
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// Notifications returns a snapshot of the local list, newest first.
func (s *Store) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Unread returns the derived count of locally-held unread notifications.
func (s *Store) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// resort and recount run under s.mu.
func (s *Store) resort() {
	sort.SliceStable(s.items, func(i, j int) bool {
		return s.items[i].CreatedAt.After(s.items[j].CreatedAt)
	})
}

func (s *Store) recount() {
	n := 0
	for _, it := range s.items {
		if !it.Read {
			n++
		}
	}
	s.unread = n
}
