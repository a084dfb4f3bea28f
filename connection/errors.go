package connection

import (
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

// Fatal errors terminate the connection; everything else is logged and the
// loops keep running. Worker goroutines cannot return their failures
// directly, so they submit classified values through the error channel and
// the operation loop decides continuation or termination.

// ErrSubscriptionTerminated is returned when the bus subscription stream
// ends while the notification loop has not been cancelled.
var ErrSubscriptionTerminated = errors.New("bus subscription terminated unexpectedly")

// ForbiddenError marks an operation naming a conversation the session user
// is not a party to. Unauthorized access closes the connection.
type ForbiddenError struct {
	Action string
}

func (e *ForbiddenError) Error() string {
	return "forbidden: " + e.Action
}

// UnexpectedCloseError records a client close frame with a code other than
// normal or going-away.
type UnexpectedCloseError struct {
	Code int
	Text string
}

func (e *UnexpectedCloseError) Error() string {
	return fmt.Sprintf("unexpected close frame: code %d %q", e.Code, e.Text)
}

// UnsupportedProtocolError records a non-text frame.
type UnsupportedProtocolError struct {
	MessageType int
}

func (e *UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("received unsupported protocol: message type %d", e.MessageType)
}

// FatalReason maps a terminal error to a short label for metrics.
func FatalReason(err error) string {
	var (
		forbidden  *ForbiddenError
		closeErr   *UnexpectedCloseError
		protoErr   *UnsupportedProtocolError
		wsCloseErr *websocket.CloseError
	)
	switch {
	case errors.Is(err, ErrSubscriptionTerminated):
		return "subscription_terminated"
	case errors.As(err, &forbidden):
		return "forbidden"
	case errors.As(err, &closeErr):
		return "unexpected_close"
	case errors.As(err, &protoErr):
		return "unsupported_protocol"
	case errors.As(err, &wsCloseErr):
		return "websocket_close"
	}
	return "websocket"
}

// classified is what worker tasks push into the error channel.
type classified struct {
	err   error
	fatal bool
}

func fatal(err error) classified {
	return classified{err: err, fatal: true}
}

func nonFatal(err error) classified {
	return classified{err: err}
}
