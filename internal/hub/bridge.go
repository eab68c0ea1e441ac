package hub

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// relayEnvelope crosses instances over Redis pub/sub. The instance id lets a
// subscriber skip envelopes it published itself.
type relayEnvelope struct {
	InstanceID  string          `json:"instance_id"`
	RecipientID string          `json:"recipient_id"`
	Payload     json.RawMessage `json:"payload"`
}

// Bridge fans deliveries out to other server instances through a Redis
// channel. It is the drop-in substitution point for multi-instance
// deployments: with the bridge attached, Deliver keeps its contract and the
// registry stays process-local.
type Bridge struct {
	rdb        *redis.Client
	channel    string
	instanceID string
	hub        *Hub
	log        *zap.SugaredLogger
}

func NewBridge(rdb *redis.Client, channel string, h *Hub, log *zap.SugaredLogger) *Bridge {
	b := &Bridge{
		rdb:        rdb,
		channel:    channel,
		instanceID: uuid.NewString(),
		hub:        h,
		log:        log,
	}
	h.Relay = b.publish
	return b
}

func (b *Bridge) publish(recipientID string, payload []byte) {
	env := relayEnvelope{
		InstanceID:  b.instanceID,
		RecipientID: recipientID,
		Payload:     payload,
	}
	raw, _ := json.Marshal(env)
	if err := b.rdb.Publish(context.Background(), b.channel, raw).Err(); err != nil {
		b.log.Warnw("relay publish failed", "error", err)
	}
}

// Run subscribes and applies envelopes from other instances to the local
// registry. Blocks until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				b.log.Warn("relay subscription closed")
				return
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				continue
			}
			if env.InstanceID == b.instanceID {
				continue
			}
			b.hub.deliverLocal(env.RecipientID, env.Payload)
		}
	}
}
