package connection

import (
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/longregen/zap/bus"
	"github.com/longregen/zap/metrics"
	"github.com/longregen/zap/protocol"
)

// notificationLoop owns the bus subscription on the connected user's hash
// and forwards every decoded event to the client, in subscription order.
type notificationLoop struct {
	sink         *sink
	bus          bus.Bus
	usernameHash string
}

func (l *notificationLoop) run(cancel <-chan struct{}) error {
	sub, err := l.bus.Subscribe(l.usernameHash)
	if err != nil {
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-cancel:
			return nil
		case payload, ok := <-sub.Chan():
			if !ok {
				// The stream ended without us asking for it.
				return ErrSubscriptionTerminated
			}

			event, err := protocol.DecodeUserEvent(payload)
			if err != nil {
				// Bus content is outside the client's control; skip it.
				slog.Warn("invalid bus payload skipped", "subject", l.usernameHash, "error", err)
				continue
			}

			data, err := (protocol.Notification{Event: event}).Encode()
			if err != nil {
				slog.Error("notification encode failed", "error", err)
				continue
			}
			if err := l.sink.send(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("send notification: %w", err)
			}
			metrics.NotificationsTotal.Inc()
		}
	}
}
