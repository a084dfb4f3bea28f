// Package connection implements the per-connection concurrency engine: a
// notification loop draining the user's bus subscription and an operation
// loop dispatching client frames, sharing one WebSocket sink under a mutex
// and cancelling each other when either finishes.
package connection

import (
	"context"
	"time"

	"github.com/longregen/zap/auth"
	"github.com/longregen/zap/bus"
	"github.com/longregen/zap/domain"
	"github.com/longregen/zap/hash"
)

// Store is the slice of the database facade the engine calls. Satisfied by
// *store.Store.
type Store interface {
	NewConversation(ctx context.Context, chooserUsername, chooseeUsername, conversationID string) error
	NewMessage(ctx context.Context, conversationID, content string, fromChooser bool) error
	UpdateChooseePresence(ctx context.Context, conversationID string, occurredAt time.Time, leaving bool, chooserHash string) error
	GetMessages(ctx context.Context, conversationID string, take int8, afterSentAt time.Time) ([]domain.Message, error)
	GetFriends(ctx context.Context, username string) ([]domain.FriendProfile, error)
	CreateFriendRequest(ctx context.Context, sender, receiver domain.Profile) error
	DeleteFriendRequest(ctx context.Context, sender, receiver domain.Profile) error
	CreateFriendship(ctx context.Context, sender, receiver domain.Profile, receiverFriends []domain.Profile) error
}

// Connection supervises one authenticated WebSocket for its whole lifetime.
type Connection struct {
	Conn    Socket
	Store   Store
	Bus     bus.Bus
	Hasher  *hash.Hasher
	Session auth.Session
}

// Handle runs both loops and returns the first terminal outcome. Whichever
// loop finishes first, for any reason, cancels the other; the second loop's
// result is discarded since the connection is going away either way. Worker
// goroutines spawned per operation are deliberately not joined.
func (c *Connection) Handle() error {
	snk := newSink(c.Conn)

	results := make(chan error, 1)
	notifyCancel := make(chan struct{}, 1)
	opCancel := make(chan struct{}, 1)

	notifyLoop := &notificationLoop{
		sink:         snk,
		bus:          c.Bus,
		usernameHash: c.Hasher.Hash(c.Session.Username),
	}
	opLoop := &operationLoop{
		conn:    c.Conn,
		sink:    snk,
		store:   c.Store,
		bus:     c.Bus,
		hasher:  c.Hasher,
		session: c.Session,
	}

	go func() {
		err := notifyLoop.run(notifyCancel)
		signal(opCancel)
		deliver(results, err)
	}()

	go func() {
		err := opLoop.run(opCancel)
		signal(notifyCancel)
		deliver(results, err)
	}()

	return <-results
}

// signal fires a capacity-1 cancellation channel. A full channel means the
// peer was already told to stop.
func signal(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// deliver forwards a loop result. Only the first one is consumed.
func deliver(results chan<- error, err error) {
	select {
	case results <- err:
	default:
	}
}
