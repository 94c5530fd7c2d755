package postgres

import (
	"context"
	"fmt"

	"github.com/okurilov/meetradar/internal/logger"
	"github.com/okurilov/meetradar/internal/model"
)

var _ model.PresenceEvents = (*PresenceListener)(nil)

// PresenceListener delivers a payload-free signal whenever any presence
// row changes, backed by the presences table trigger and LISTEN/NOTIFY.
type PresenceListener struct {
	db     *Connection
	logger *logger.Logger
}

func NewPresenceListener(db *Connection, logger *logger.Logger) *PresenceListener {
	return &PresenceListener{
		db:     db,
		logger: logger,
	}
}

// Subscribe acquires a dedicated connection and starts listening. The
// returned channel is buffered and coalescing: notifications arriving
// while the consumer is busy collapse into a single pending signal. The
// channel closes when ctx is cancelled or the connection is lost.
func (l *PresenceListener) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	conn, err := l.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire listener connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN presence_changed"); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on presence channel: %w", err)
	}

	events := make(chan struct{}, 1)

	go func() {
		defer close(events)
		defer conn.Release()

		for {
			if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
				if ctx.Err() == nil {
					l.logger.Error("presence listener stopped", "error", err)
				}
				return
			}

			select {
			case events <- struct{}{}:
			default:
			}
		}
	}()

	return events, nil
}
