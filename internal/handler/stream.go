package handler

import (
	"context"
	"io"
	"time"

	"comedybar/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// BarSubscriber delivers bar changes published by any API instance.
type BarSubscriber interface {
	Subscribe(ctx context.Context, handler func(ctx context.Context, change service.BarChange)) error
}

const streamKeepAlive = 25 * time.Second

type StreamHandler struct{ sub BarSubscriber }

func NewStreamHandler(sub BarSubscriber) *StreamHandler { return &StreamHandler{sub: sub} }

// Session godoc
// @Summary Stream (SSE) de alterações do bar para uma sessão
// @Tags sessions
// @Produce text/event-stream
// @Security BearerAuth
// @Param id path string true "ID da sessão"
// @Router /v1/sessions/{id}/stream [get]
func (h *StreamHandler) Session(c *gin.Context) {
	sessionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	changes := make(chan service.BarChange, 16)
	go func() {
		err := h.sub.Subscribe(ctx, func(_ context.Context, change service.BarChange) {
			if change.SessionID != sessionID {
				return
			}
			select {
			case changes <- change:
			default: // slow client; it refetches on the next change anyway
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("bar stream subscription ended")
			cancel()
		}
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case change := <-changes:
			c.SSEvent("bar_changed", change)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
