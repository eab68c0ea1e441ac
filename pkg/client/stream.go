package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Listener holds one end of the push stream open and feeds arriving events
// into the store. The server keeps no state across reconnects, so every
// (re)connect starts with a full refetch to cover anything missed while
// disconnected, then a brand-new stream.
type Listener struct {
	baseURL string
	token   string
	store   *Store

	// no overall timeout: the stream is meant to stay open
	http *http.Client

	// ReconnectWait is the pause before dialing again after a drop.
	ReconnectWait time.Duration
}

func NewListener(baseURL, token string, store *Store) *Listener {
	return &Listener{
		baseURL:       baseURL,
		token:         token,
		store:         store,
		http:          &http.Client{},
		ReconnectWait: 3 * time.Second,
	}
}

// Listen blocks until ctx is cancelled, resyncing and reconnecting after
// every stream drop.
func (l *Listener) Listen(ctx context.Context) error {
	for {
		if err := l.store.FetchAll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
		} else if err := l.consume(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.ReconnectWait):
		}
	}
}

// consume opens the stream and dispatches events until it drops.
func (l *Listener) consume(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/api/v1/notifications/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+l.token)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := l.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream: status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		// heartbeat comments and blank separators carry no event
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			continue
		}
		if ev.Type != "notification" {
			continue
		}
		l.store.OnPushEvent(ev.Notification)
	}
	return scanner.Err()
}
