package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/longregen/zap/auth"
	"github.com/longregen/zap/bus"
	"github.com/longregen/zap/conversation"
	"github.com/longregen/zap/domain"
	"github.com/longregen/zap/hash"
	"github.com/longregen/zap/metrics"
	"github.com/longregen/zap/protocol"
)

// Worker tasks are not joined by the loops; a deadline bounds how long they
// may outlive the connection.
const workerTimeout = 30 * time.Second

// errBacklog is the error channel capacity. The channel would need to be
// unbounded for full fidelity (many parallel workers can fail while the loop
// sits in its select); a deep bounded channel with log-and-drop overflow is
// the accepted trade-off.
const errBacklog = 256

// operationLoop reads client frames, authorizes each operation against the
// conversation identifier and spawns a worker goroutine per side effect so
// the select never blocks on storage or bus latency.
type operationLoop struct {
	conn    Socket
	sink    *sink
	store   Store
	bus     bus.Bus
	hasher  *hash.Hasher
	session auth.Session
}

type frame struct {
	messageType int
	data        []byte
	err         error
}

func (l *operationLoop) run(cancel <-chan struct{}) error {
	errs := make(chan classified, errBacklog)
	frames := make(chan frame)
	done := make(chan struct{})
	defer close(done)

	// ReadMessage cannot participate in a select, so a dedicated reader
	// feeds the frame channel. It exits on read error or once the loop
	// returns (the supervisor's deferred Close unblocks a pending read).
	go func() {
		for {
			messageType, data, err := l.conn.ReadMessage()
			select {
			case frames <- frame{messageType: messageType, data: data, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-cancel:
			return nil
		case c := <-errs:
			if c.fatal {
				return c.err
			}
			slog.Warn("non-fatal connection error", "username", l.session.Username, "error", c.err)
		case f := <-frames:
			if f.err != nil {
				return classifyReadError(f.err)
			}
			if f.messageType != websocket.TextMessage {
				return &UnsupportedProtocolError{MessageType: f.messageType}
			}

			op, err := protocol.DecodeOperation(f.data)
			if err != nil {
				// A malformed frame usually means a buggy client, not a
				// hostile one; keep the connection.
				report(errs, nonFatal(fmt.Errorf("unsupported message format: %w", err)))
				continue
			}
			l.handle(op, errs)
		}
	}
}

// classifyReadError decides whether a failed read is a clean shutdown.
// Normal and going-away close codes are benign, as is a close frame with no
// code at all; every other close code and transport error is fatal.
func classifyReadError(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived:
			return nil
		}
		return &UnexpectedCloseError{Code: closeErr.Code, Text: closeErr.Text}
	}
	return fmt.Errorf("read frame: %w", err)
}

func (l *operationLoop) handle(op protocol.Operation, errs chan<- classified) {
	metrics.OperationsTotal.WithLabelValues(op.Op()).Inc()

	switch op := op.(type) {
	case protocol.QueryMessages:
		l.handleMessages(op, errs)
	case protocol.QueryFriends:
		l.handleFriends(errs)
	case protocol.MutationChoose:
		l.handleChoose(op, errs)
	case protocol.MutationSend:
		l.handleSend(op, errs)
	case protocol.MutationRegisterPresenceChoosee:
		l.handleRegisterPresence(op, errs)
	case protocol.MutationCreateFriendRequest:
		l.handleCreateFriendRequest(op, errs)
	case protocol.MutationRemoveFriendRequest:
		l.handleRemoveFriendRequest(op, errs)
	case protocol.MutationAcceptFriendRequest:
		l.handleAcceptFriendRequest(op, errs)
	default:
		report(errs, nonFatal(fmt.Errorf("unhandled operation type %T", op)))
	}
}

func (l *operationLoop) handleMessages(op protocol.QueryMessages, errs chan<- classified) {
	id := conversation.Parse(op.ConversationID)
	if id.RoleOf(l.hasher, l.session.Username) == conversation.NotInConversation {
		report(errs, fatal(&ForbiddenError{Action: "get messages in a conversation not belonging to"}))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
		defer cancel()

		messages, err := l.store.GetMessages(ctx, id.String(), op.Take, op.AfterSentAt)
		if err != nil {
			metrics.StoreErrorsTotal.Inc()
			report(errs, nonFatal(err))
			l.respond(errs, protocol.ErrorResponse("Failed to get messages for this conversation"))
			return
		}
		l.respond(errs, protocol.MessagesResponse{ConversationID: id.String(), Messages: messages})
	}()
}

func (l *operationLoop) handleChoose(op protocol.MutationChoose, errs chan<- classified) {
	id := conversation.New(l.hasher, l.session.Username, op.ChooseeUsername)

	event := protocol.ChosenEvent{
		ConversationID: id.String(),
		Content:        op.Content,
		SentAt:         time.Now().UTC(),
	}
	l.publish(errs, id.ChooseeHash(), event)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
		defer cancel()
		if err := l.store.NewConversation(ctx, l.session.Username, op.ChooseeUsername, id.String()); err != nil {
			metrics.StoreErrorsTotal.Inc()
			report(errs, nonFatal(err))
		}
	}()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
		defer cancel()
		if err := l.store.NewMessage(ctx, id.String(), op.Content, true); err != nil {
			metrics.StoreErrorsTotal.Inc()
			report(errs, nonFatal(err))
		}
	}()
}

func (l *operationLoop) handleSend(op protocol.MutationSend, errs chan<- classified) {
	id := conversation.Parse(op.ConversationID)

	var toHash string
	var fromChooser bool
	switch id.RoleOf(l.hasher, l.session.Username) {
	case conversation.Chooser:
		toHash, fromChooser = id.ChooseeHash(), true
	case conversation.Choosee:
		toHash, fromChooser = id.ChooserHash(), false
	default:
		report(errs, fatal(&ForbiddenError{Action: "send message to a conversation not belonging to"}))
		return
	}

	event := protocol.MessageEvent{
		ConversationID: id.String(),
		Content:        op.Content,
		SentAt:         time.Now().UTC(),
	}
	l.publish(errs, toHash, event)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
		defer cancel()
		if err := l.store.NewMessage(ctx, id.String(), op.Content, fromChooser); err != nil {
			metrics.StoreErrorsTotal.Inc()
			report(errs, nonFatal(err))
		}
	}()
}

func (l *operationLoop) handleRegisterPresence(op protocol.MutationRegisterPresenceChoosee, errs chan<- classified) {
	id := conversation.Parse(op.ConversationID)
	if id.RoleOf(l.hasher, l.session.Username) != conversation.Choosee {
		report(errs, fatal(&ForbiddenError{Action: "register choosee presence in a conversation not a choosee of"}))
		return
	}

	occurredAt := time.Now().UTC()

	event := protocol.ChooseePresenceEvent{
		ConversationID: id.String(),
		Leaving:        op.Leaving,
		OccurredAt:     occurredAt,
	}
	l.publish(errs, id.ChooserHash(), event)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
		defer cancel()
		if err := l.store.UpdateChooseePresence(ctx, id.String(), occurredAt, op.Leaving, id.ChooserHash()); err != nil {
			metrics.StoreErrorsTotal.Inc()
			report(errs, nonFatal(err))
		}
	}()
}

func (l *operationLoop) handleFriends(errs chan<- classified) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
		defer cancel()

		friends, err := l.store.GetFriends(ctx, l.session.Username)
		if err != nil {
			metrics.StoreErrorsTotal.Inc()
			report(errs, nonFatal(err))
			l.respond(errs, protocol.ErrorResponse("Failed to get friends"))
			return
		}
		l.respond(errs, protocol.FriendsResponse{Friends: friends})
	}()
}

func (l *operationLoop) handleCreateFriendRequest(op protocol.MutationCreateFriendRequest, errs chan<- classified) {
	// The sender is always the session user; the wire only supplies names.
	sender := domain.Profile{Username: l.session.Username, Name: op.SenderName}
	receiver := domain.Profile{Username: op.ReceiverUsername, Name: op.ReceiverName}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
		defer cancel()
		if err := l.store.CreateFriendRequest(ctx, sender, receiver); err != nil {
			metrics.StoreErrorsTotal.Inc()
			report(errs, nonFatal(err))
		}
	}()
}

func (l *operationLoop) handleRemoveFriendRequest(op protocol.MutationRemoveFriendRequest, errs chan<- classified) {
	sender := domain.Profile{Username: l.session.Username, Name: op.SenderName}
	receiver := domain.Profile{Username: op.ReceiverUsername, Name: op.ReceiverName}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
		defer cancel()
		if err := l.store.DeleteFriendRequest(ctx, sender, receiver); err != nil {
			metrics.StoreErrorsTotal.Inc()
			report(errs, nonFatal(err))
		}
	}()
}

func (l *operationLoop) handleAcceptFriendRequest(op protocol.MutationAcceptFriendRequest, errs chan<- classified) {
	// The accepting side is the session user.
	sender := domain.Profile{Username: op.SenderUsername, Name: op.SenderName}
	receiver := domain.Profile{Username: l.session.Username, Name: op.ReceiverName}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), workerTimeout)
		defer cancel()

		friendProfiles, err := l.store.GetFriends(ctx, receiver.Username)
		if err != nil {
			metrics.StoreErrorsTotal.Inc()
			report(errs, nonFatal(err))
			return
		}
		receiverFriends := make([]domain.Profile, 0, len(friendProfiles))
		for _, f := range friendProfiles {
			receiverFriends = append(receiverFriends, f.Profile())
		}

		if err := l.store.CreateFriendship(ctx, sender, receiver, receiverFriends); err != nil {
			metrics.StoreErrorsTotal.Inc()
			report(errs, nonFatal(err))
		}
	}()
}

// publish fires a best-effort bus send in its own goroutine. Publish
// failures never terminate the connection.
func (l *operationLoop) publish(errs chan<- classified, subject string, event protocol.UserEvent) {
	data, err := protocol.EncodeUserEvent(event)
	if err != nil {
		slog.Error("event encode failed", "error", err)
		return
	}
	go func() {
		if err := l.bus.Publish(subject, data); err != nil {
			metrics.PublishFailuresTotal.Inc()
			report(errs, nonFatal(err))
		}
	}()
}

// respond sends a synchronous reply through the shared sink. A failing sink
// means the socket is dead, which escalates to fatal.
func (l *operationLoop) respond(errs chan<- classified, resp protocol.Response) {
	data, err := protocol.EncodeResponse(resp)
	if err != nil {
		slog.Error("response encode failed", "error", err)
		return
	}
	if err := l.sink.send(websocket.TextMessage, data); err != nil {
		report(errs, fatal(fmt.Errorf("send response: %w", err)))
	}
}

// report submits a classified error without ever blocking a worker. The
// channel is deep enough that overflow means something is badly wrong; the
// dropped error is still logged.
func report(errs chan<- classified, c classified) {
	select {
	case errs <- c:
	default:
		slog.Warn("connection error channel full, dropping", "error", c.err, "fatal", c.fatal)
	}
}
