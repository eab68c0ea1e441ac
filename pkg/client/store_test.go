package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer is a minimal stand-in for the REST surface: a mutable snapshot
// plus a switch to fail the mark-read endpoint.
type fakeServer struct {
	mu           sync.Mutex
	list         []Notification
	markReadIDs  [][]string
	failMarkRead bool
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(f.list)
	})
	mux.HandleFunc("POST /api/v1/notifications/read", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failMarkRead {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var req struct {
			IDs []string `json:"ids"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.markReadIDs = append(f.markReadIDs, req.IDs)
		for _, id := range req.IDs {
			for i := range f.list {
				if f.list[i].ID == id {
					f.list[i].Read = true
				}
			}
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	return mux
}

func notif(id string, createdAt time.Time, read bool) Notification {
	return Notification{
		ID:          id,
		RecipientID: "user-1",
		Type:        "new_like",
		Message:     "someone liked your discount",
		Read:        read,
		CreatedAt:   createdAt,
	}
}

// assertInvariant checks the spec's derived-count rule: unread always equals
// the number of locally-held notifications with read == false.
func assertInvariant(t *testing.T, s *Store) {
	t.Helper()
	count := 0
	for _, n := range s.Notifications() {
		if !n.Read {
			count++
		}
	}
	assert.Equal(t, count, s.Unread())
}

func newTestStore(t *testing.T, f *fakeServer, toast ToastFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewStore(NewClient(srv.URL, "test-token"), toast)
}

func TestFetchAllReplacesLocalState(t *testing.T) {
	base := time.Now().UTC()
	f := &fakeServer{list: []Notification{
		notif("n2", base.Add(time.Minute), false),
		notif("n1", base, true),
	}}
	s := newTestStore(t, f, nil)

	require.NoError(t, s.FetchAll(context.Background()))

	list := s.Notifications()
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)
	assert.Equal(t, 1, s.Unread())
	assertInvariant(t, s)
}

func TestOnPushEventDeduplicatesByID(t *testing.T) {
	base := time.Now().UTC()
	pushed := notif("n1", base, false)
	f := &fakeServer{list: []Notification{pushed}}

	var toasts []Notification
	s := newTestStore(t, f, func(n Notification) { toasts = append(toasts, n) })

	require.NoError(t, s.FetchAll(context.Background()))
	require.Equal(t, 1, s.Unread())

	// the same notification arrives over the push path just after the fetch
	s.OnPushEvent(pushed)

	list := s.Notifications()
	require.Len(t, list, 1, "duplicate id must collapse to a single copy")
	assert.Equal(t, 1, s.Unread(), "unread must not double-count a duplicate")
	assert.Empty(t, toasts, "a duplicate must not raise a second alert")
	assertInvariant(t, s)
}

func TestOnPushEventPrependsAndToasts(t *testing.T) {
	base := time.Now().UTC()
	f := &fakeServer{list: []Notification{notif("n1", base, true)}}

	var toasts []Notification
	s := newTestStore(t, f, func(n Notification) { toasts = append(toasts, n) })
	require.NoError(t, s.FetchAll(context.Background()))

	fresh := notif("n2", base.Add(time.Minute), false)
	s.OnPushEvent(fresh)

	list := s.Notifications()
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)
	assert.Equal(t, 1, s.Unread())
	require.Len(t, toasts, 1)
	assert.Equal(t, "n2", toasts[0].ID)
	assertInvariant(t, s)
}

func TestOrderingStableUnderInterleavedFetchAndPush(t *testing.T) {
	base := time.Now().UTC()
	f := &fakeServer{list: []Notification{notif("n2", base.Add(time.Minute), false)}}
	s := newTestStore(t, f, nil)

	require.NoError(t, s.FetchAll(context.Background()))
	// a push event older than the fetched snapshot (delayed delivery)
	s.OnPushEvent(notif("n1", base, false))

	list := s.Notifications()
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID, "ordering is by created_at, not arrival order")
	assert.Equal(t, "n1", list[1].ID)
	assertInvariant(t, s)
}

func TestMarkReadIsOptimistic(t *testing.T) {
	base := time.Now().UTC()
	f := &fakeServer{list: []Notification{
		notif("n1", base, false),
		notif("n2", base.Add(time.Minute), false),
	}}
	s := newTestStore(t, f, nil)
	require.NoError(t, s.FetchAll(context.Background()))
	require.Equal(t, 2, s.Unread())

	require.NoError(t, s.MarkRead(context.Background(), []string{"n1"}))

	assert.Equal(t, 1, s.Unread())
	require.Len(t, f.markReadIDs, 1)
	assert.Equal(t, []string{"n1"}, f.markReadIDs[0])
	assertInvariant(t, s)

	// marking again is a no-op locally and server-side
	require.NoError(t, s.MarkRead(context.Background(), []string{"n1"}))
	assert.Equal(t, 1, s.Unread())
	assertInvariant(t, s)
}

func TestMarkReadFailureForcesResync(t *testing.T) {
	base := time.Now().UTC()
	f := &fakeServer{
		list:         []Notification{notif("n1", base, false)},
		failMarkRead: true,
	}
	s := newTestStore(t, f, nil)
	require.NoError(t, s.FetchAll(context.Background()))

	err := s.MarkRead(context.Background(), []string{"n1"})
	require.Error(t, err)

	// the store resynced against the server, which still has n1 unread
	list := s.Notifications()
	require.Len(t, list, 1)
	assert.False(t, list[0].Read)
	assert.Equal(t, 1, s.Unread())
	assertInvariant(t, s)
}

func TestUnreadInvariantAcrossOperationSequence(t *testing.T) {
	base := time.Now().UTC()
	f := &fakeServer{list: []Notification{notif("n1", base, false)}}
	s := newTestStore(t, f, nil)

	require.NoError(t, s.FetchAll(context.Background()))
	assertInvariant(t, s)

	s.OnPushEvent(notif("n2", base.Add(time.Minute), false))
	assertInvariant(t, s)

	s.OnPushEvent(notif("n2", base.Add(time.Minute), false)) // duplicate
	assertInvariant(t, s)

	require.NoError(t, s.MarkRead(context.Background(), []string{"n1", "n2"}))
	assertInvariant(t, s)

	require.NoError(t, s.FetchAll(context.Background()))
	assertInvariant(t, s)
}
