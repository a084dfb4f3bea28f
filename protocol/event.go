package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// UserEvent is a server-originated event published on the bus, addressed to
// a single username hash. The gateway forwards it to the client unchanged as
// a Notification.
type UserEvent interface {
	eventOp() string
}

// ChosenEvent tells a user that someone opened a conversation with them.
type ChosenEvent struct {
	ConversationID string    `json:"conversationId"`
	Content        string    `json:"content"`
	SentAt         time.Time `json:"sentAt"`
}

// MessageEvent carries a new message in an existing conversation.
type MessageEvent struct {
	ConversationID string    `json:"conversationId"`
	Content        string    `json:"content"`
	SentAt         time.Time `json:"sentAt"`
}

// ChooseePresenceEvent tells the chooser their counterparty arrived or left.
type ChooseePresenceEvent struct {
	ConversationID string    `json:"conversationId"`
	Leaving        bool      `json:"leaving"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Event discriminators.
const (
	OpChosen          = "chosen"
	OpMessage         = "message"
	OpChooseePresence = "chooseePresence"
)

func (ChosenEvent) eventOp() string          { return OpChosen }
func (MessageEvent) eventOp() string         { return OpMessage }
func (ChooseePresenceEvent) eventOp() string { return OpChooseePresence }

// EncodeUserEvent renders the bus payload for an event. Like responses,
// events are built from server-side values; failure means a bug.
func EncodeUserEvent(e UserEvent) ([]byte, error) {
	return encode(e.eventOp(), e)
}

// DecodeUserEvent parses a bus payload. Bus content is outside any one
// client's control, so callers treat failures as skippable.
func DecodeUserEvent(data []byte) (UserEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}
	if len(env.D) == 0 {
		return nil, fmt.Errorf("event %q: missing payload", env.Op)
	}

	decodeEvent := func(into UserEvent) error {
		if err := json.Unmarshal(env.D, into); err != nil {
			return fmt.Errorf("decode %q payload: %w", env.Op, err)
		}
		return nil
	}

	switch env.Op {
	case OpChosen:
		var e ChosenEvent
		if err := decodeEvent(&e); err != nil {
			return nil, err
		}
		return e, nil
	case OpMessage:
		var e MessageEvent
		if err := decodeEvent(&e); err != nil {
			return nil, err
		}
		return e, nil
	case OpChooseePresence:
		var e ChooseePresenceEvent
		if err := decodeEvent(&e); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("unknown event %q", env.Op)
}

// Notification is the client-facing wrapper around a bus event. The wire
// form is identical to the event itself.
type Notification struct {
	Event UserEvent
}

func (n Notification) Encode() ([]byte, error) {
	return EncodeUserEvent(n.Event)
}
