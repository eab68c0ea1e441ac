package hub

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GDGAOU/notification-service/internal/metrics"
	"github.com/GDGAOU/notification-service/internal/model"
)

// Event is the only message shape the push stream carries.
type Event struct {
	Type         string             `json:"type"`
	Notification model.Notification `json:"notification"`
}

// Subscriber is one live push connection's receiving end. The hub writes
// serialized events into it; the SSE writer drains them in FIFO order.
// The event channel is never closed; teardown is signalled through Done so a
// delivery racing an unregister can never write to a closed channel.
type Subscriber struct {
	RecipientID string
	ch          chan []byte
	done        chan struct{}
	torn        int32
}

func NewSubscriber(recipientID string, buf int) *Subscriber {
	return &Subscriber{
		RecipientID: recipientID,
		ch:          make(chan []byte, buf),
		done:        make(chan struct{}),
	}
}

// Events is the ordered stream of serialized events for this connection.
func (s *Subscriber) Events() <-chan []byte {
	return s.ch
}

// Done is closed exactly once, when the subscriber is unregistered.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

func (s *Subscriber) teardown() {
	if atomic.CompareAndSwapInt32(&s.torn, 0, 1) {
		close(s.done)
	}
}

// Hub is the process-wide fan-out router: recipient id -> live subscribers.
// Fan-out is only correct within one process; the optional Redis relay in
// bridge.go extends it across instances behind the same Deliver contract.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscriber]struct{}
	log  *zap.SugaredLogger

	// Relay, when set, forwards every delivered event to other instances.
	Relay func(recipientID string, payload []byte)
}

func New(log *zap.SugaredLogger) *Hub {
	return &Hub{
		subs: make(map[string]map[*Subscriber]struct{}),
		log:  log,
	}
}

func (h *Hub) Register(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sub.RecipientID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.subs[sub.RecipientID] = set
	}
	set[sub] = struct{}{}
	metrics.OpenStreams.Inc()
}

// Unregister removes the subscriber and signals its teardown. Safe to call
// more than once for the same subscriber (error and close paths may both
// fire for one disconnect).
func (h *Hub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	set, ok := h.subs[sub.RecipientID]
	removed := false
	if ok {
		if _, present := set[sub]; present {
			delete(set, sub)
			removed = true
		}
		if len(set) == 0 {
			delete(h.subs, sub.RecipientID)
		}
	}
	h.mu.Unlock()

	if removed {
		metrics.OpenStreams.Dec()
	}
	sub.teardown()
}

// Deliver serializes the notification once and writes it to every live
// subscriber of the recipient. No subscribers means a silent drop: the
// notification is already persisted and the next REST fetch covers it.
func (h *Hub) Deliver(recipientID string, n model.Notification) {
	payload, err := json.Marshal(Event{Type: "notification", Notification: n})
	if err != nil {
		h.log.Errorw("marshal push event", "error", err)
		return
	}
	h.deliverLocal(recipientID, payload)
	if h.Relay != nil {
		h.Relay(recipientID, payload)
	}
}

// deliverLocal writes to local subscribers only. A write that would block is
// treated as an implicit disconnect of that one subscriber; the others still
// get the event.
func (h *Hub) deliverLocal(recipientID string, payload []byte) {
	h.mu.RLock()
	set := h.subs[recipientID]
	targets := make([]*Subscriber, 0, len(set))
	for sub := range set {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		select {
		case sub.ch <- payload:
			metrics.Delivered.Inc()
		default:
			metrics.Dropped.Inc()
			h.log.Warnw("slow push connection dropped", "recipient", recipientID)
			h.Unregister(sub)
		}
	}
}

// CloseAll tears down every live subscriber. Called on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	var all []*Subscriber
	for _, set := range h.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	h.subs = make(map[string]map[*Subscriber]struct{})
	h.mu.Unlock()

	for _, sub := range all {
		metrics.OpenStreams.Dec()
		sub.teardown()
	}
}
