// Package bus carries "bar changed" notifications between API instances
// over Redis pub/sub, so every open bar page can refresh.
package bus

import (
	"context"
	"encoding/json"
	"time"

	"comedybar/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Channel is the Redis channel bar changes are published on.
const Channel = "comedybar:v1:bar_changed"

type barChangedMsg struct {
	Type string `json:"type"`
	service.BarChange
	TsUnix int64 `json:"ts_unix"`
}

// BarEvents publishes and subscribes to bar changes. It implements
// service.BarNotifier.
type BarEvents struct {
	rdb     *redis.Client
	channel string
}

func NewBarEvents(rdb *redis.Client) *BarEvents {
	return &BarEvents{rdb: rdb, channel: Channel}
}

// BarChanged publishes the change. Failures are logged and dropped; a
// missed refresh never fails the operation that caused it.
func (b *BarEvents) BarChanged(ctx context.Context, change service.BarChange) {
	payload, err := encode(change)
	if err != nil {
		return
	}
	// request ctx may already be cancelled once the response is written
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := b.rdb.Publish(pubCtx, b.channel, payload).Err(); err != nil {
		log.Warn().Err(err).
			Str("kind", change.Kind).
			Str("session_id", change.SessionID.String()).
			Msg("bar change publish failed")
	}
}

// Subscribe calls handler for every change until ctx is done.
func (b *BarEvents) Subscribe(ctx context.Context, handler func(ctx context.Context, change service.BarChange)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			if change, ok := decode(m.Payload); ok {
				handler(ctx, change)
			}
		}
	}
}

func encode(change service.BarChange) ([]byte, error) {
	return json.Marshal(barChangedMsg{
		Type:      "bar_changed",
		BarChange: change,
		TsUnix:    time.Now().Unix(),
	})
}

func decode(payload string) (service.BarChange, bool) {
	var msg barChangedMsg
	if err := json.Unmarshal([]byte(payload), &msg); err != nil || msg.Type != "bar_changed" {
		return service.BarChange{}, false
	}
	return msg.BarChange, true
}
