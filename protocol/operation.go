package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operation is the union of everything a client may ask for: queries, which
// expect a synchronous Response, and mutations, whose effects surface as
// UserEvents on the counterparty's subscription.
type Operation interface {
	// Op returns the wire discriminator for the operation.
	Op() string
}

// QueryMessages asks for up to Take messages strictly newer than AfterSentAt.
type QueryMessages struct {
	ConversationID string    `json:"conversationId"`
	Take           int8      `json:"take"`
	AfterSentAt    time.Time `json:"afterSentAt"`
}

// QueryFriends asks for the session user's friend list.
type QueryFriends struct{}

// MutationChoose opens a conversation towards ChooseeUsername with an
// initial message.
type MutationChoose struct {
	Content         string `json:"content"`
	ChooseeUsername string `json:"chooseeUsername"`
}

// MutationSend appends a message to an existing conversation.
type MutationSend struct {
	Content        string `json:"content"`
	ConversationID string `json:"conversationId"`
}

// MutationRegisterPresenceChoosee stamps the choosee's liveness in a
// conversation.
type MutationRegisterPresenceChoosee struct {
	ConversationID string `json:"conversationId"`
	Leaving        bool   `json:"leaving"`
}

// MutationCreateFriendRequest records a pending friend request on both
// sides. The sender's username is always the session user's.
type MutationCreateFriendRequest struct {
	SenderName       string `json:"senderName"`
	ReceiverUsername string `json:"receiverUsername"`
	ReceiverName     string `json:"receiverName"`
}

// MutationRemoveFriendRequest withdraws a pending friend request.
type MutationRemoveFriendRequest struct {
	SenderName       string `json:"senderName"`
	ReceiverUsername string `json:"receiverUsername"`
	ReceiverName     string `json:"receiverName"`
}

// MutationAcceptFriendRequest turns a pending request into a friendship.
// The accepting side is the session user.
type MutationAcceptFriendRequest struct {
	SenderUsername string `json:"senderUsername"`
	SenderName     string `json:"senderName"`
	ReceiverName   string `json:"receiverName"`
}

func (QueryMessages) Op() string                   { return OpMessages }
func (QueryFriends) Op() string                    { return OpFriends }
func (MutationChoose) Op() string                  { return OpChoose }
func (MutationSend) Op() string                    { return OpSend }
func (MutationRegisterPresenceChoosee) Op() string { return OpRegisterPresenceChoosee }
func (MutationCreateFriendRequest) Op() string     { return OpCreateFriendRequest }
func (MutationRemoveFriendRequest) Op() string     { return OpRemoveFriendRequest }
func (MutationAcceptFriendRequest) Op() string     { return OpAcceptFriendRequest }

// Operation discriminators.
const (
	OpMessages                = "messages"
	OpFriends                 = "friends"
	OpChoose                  = "choose"
	OpSend                    = "send"
	OpRegisterPresenceChoosee = "registerPresenceChoosee"
	OpCreateFriendRequest     = "createFriendRequest"
	OpRemoveFriendRequest     = "removeFriendRequest"
	OpAcceptFriendRequest     = "acceptFriendRequest"
)

// DecodeOperation parses a text frame into an Operation. Any failure here is
// a client-side formatting problem, never a reason to drop the connection.
func DecodeOperation(data []byte) (Operation, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode operation envelope: %w", err)
	}

	switch env.Op {
	case OpMessages:
		return decodePayload[QueryMessages](env)
	case OpFriends:
		return QueryFriends{}, nil
	case OpChoose:
		return decodePayload[MutationChoose](env)
	case OpSend:
		return decodePayload[MutationSend](env)
	case OpRegisterPresenceChoosee:
		return decodePayload[MutationRegisterPresenceChoosee](env)
	case OpCreateFriendRequest:
		return decodePayload[MutationCreateFriendRequest](env)
	case OpRemoveFriendRequest:
		return decodePayload[MutationRemoveFriendRequest](env)
	case OpAcceptFriendRequest:
		return decodePayload[MutationAcceptFriendRequest](env)
	}
	return nil, fmt.Errorf("unknown operation %q", env.Op)
}

func decodePayload[T Operation](env envelope) (Operation, error) {
	var v T
	if len(env.D) == 0 {
		return nil, fmt.Errorf("operation %q: missing payload", env.Op)
	}
	if err := json.Unmarshal(env.D, &v); err != nil {
		return nil, fmt.Errorf("decode %q payload: %w", env.Op, err)
	}
	return v, nil
}
