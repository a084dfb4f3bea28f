package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
)

// NATS implements Bus over a single NATS connection.
type NATS struct {
	nc *nats.Conn
}

// Config holds NATS connection settings. CredsPath is optional; when set it
// points at a decorated user credentials file.
type Config struct {
	URL       string
	CredsPath string
}

func Connect(cfg Config) (*NATS, error) {
	opts := []nats.Option{
		nats.Name("zap-gateway"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats: disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats: reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if cfg.CredsPath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsPath))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATS{nc: nc}, nil
}

func (b *NATS) Subscribe(subject string) (Subscription, error) {
	sub, err := b.nc.SubscribeSync(subject)
	if err != nil {
		return nil, fmt.Errorf("subscribe %q: %w", subject, err)
	}

	s := &natsSubscription{
		sub:  sub,
		ch:   make(chan []byte, 64),
		quit: make(chan struct{}),
	}
	go s.pump()
	return s, nil
}

func (b *NATS) Publish(subject string, data []byte) error {
	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %q: %w", subject, err)
	}
	return nil
}

func (b *NATS) Close() {
	if err := b.nc.Drain(); err != nil {
		b.nc.Close()
	}
}

type natsSubscription struct {
	sub  *nats.Subscription
	ch   chan []byte
	quit chan struct{}
	once sync.Once
}

func (s *natsSubscription) Chan() <-chan []byte {
	return s.ch
}

func (s *natsSubscription) Unsubscribe() error {
	s.once.Do(func() { close(s.quit) })
	return s.sub.Unsubscribe()
}

// pump moves messages from the NATS subscription into the channel and closes
// it when the subscription ends, whether through Unsubscribe or because the
// connection died.
func (s *natsSubscription) pump() {
	defer close(s.ch)
	for {
		msg, err := s.sub.NextMsgWithContext(context.Background())
		if err != nil {
			if !errors.Is(err, nats.ErrBadSubscription) && !errors.Is(err, nats.ErrConnectionClosed) {
				slog.Warn("nats: subscription read error", "subject", s.sub.Subject, "error", err)
			}
			return
		}
		select {
		case s.ch <- msg.Data:
		case <-s.quit:
			return
		}
	}
}
