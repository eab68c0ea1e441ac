package sse

import (
	"bufio"
	"time"

	"go.uber.org/zap"

	"github.com/GDGAOU/notification-service/internal/hub"
)

// Connection drives one open push stream: it drains the subscriber's event
// channel onto the wire in FIFO order, interleaved with heartbeat comments so
// dead peers are detected. The connection is one-directional; nothing is ever
// read from the client.
type Connection struct {
	sub  *hub.Subscriber
	hub  *hub.Hub
	ping time.Duration
	log  *zap.SugaredLogger
}

func NewConnection(h *hub.Hub, sub *hub.Subscriber, ping time.Duration, log *zap.SugaredLogger) *Connection {
	return &Connection{sub: sub, hub: h, ping: ping, log: log}
}

// Run blocks for the lifetime of the stream. It exits on teardown signal,
// write failure, or heartbeat failure; every exit path unregisters the
// subscriber, and the hub makes double-unregister a no-op.
func (c *Connection) Run(w *bufio.Writer) {
	defer c.hub.Unregister(c.sub)

	ticker := time.NewTicker(c.ping)
	defer ticker.Stop()

	for {
		select {
		case <-c.sub.Done():
			return
		case payload := <-c.sub.Events():
			if err := writeEvent(w, payload); err != nil {
				c.log.Debugw("push write failed", "recipient", c.sub.RecipientID, "error", err)
				return
			}
		case <-ticker.C:
			if err := writeComment(w, "ping"); err != nil {
				c.log.Debugw("heartbeat failed", "recipient", c.sub.RecipientID, "error", err)
				return
			}
		}
	}
}

func writeEvent(w *bufio.Writer, payload []byte) error {
	if _, err := w.WriteString("data: "); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if _, err := w.WriteString("\n\n"); err != nil {
		return err
	}
	return w.Flush()
}

func writeComment(w *bufio.Writer, text string) error {
	if _, err := w.WriteString(": " + text + "\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
