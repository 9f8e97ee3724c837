package bot

import (
	"context"
	"log/slog"
	"time"
)

const DefaultRetryDelay = 3 * time.Second

type updateHandler interface {
	HandleUpdate(ctx context.Context, update Update) error
}

// Poller drains the channel one update at a time. The offset only moves
// past updates that were handed to the handler, so a failed fetch asks for
// the same batch again.
type Poller struct {
	channel    Channel
	handler    updateHandler
	retryDelay time.Duration
	offset     int
}

func NewPoller(channel Channel, handler updateHandler, retryDelay time.Duration) *Poller {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Poller{channel: channel, handler: handler, retryDelay: retryDelay}
}

func (p *Poller) Offset() int {
	return p.offset
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	slog.Info("bot start handling", "offset", p.offset)

	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := p.channel.FetchUpdates(ctx, p.offset)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("fetch updates failed", "offset", p.offset, "retry_in", p.retryDelay, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.retryDelay):
			}
			continue
		}

		for _, update := range updates {
			p.offset = update.ID + 1
			if err := p.handler.HandleUpdate(ctx, update); err != nil {
				slog.Error("reply failed", "update_id", update.ID, "chat_id", update.ChatID, "error", err)
			}
		}
	}
}
