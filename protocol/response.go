package protocol

import (
	"fmt"

	"github.com/longregen/zap/domain"
)

// Response is the synchronous server reply to a query. Mutations never get a
// reply on the wire; their effects travel through the bus.
type Response interface {
	responseOp() string
}

// ErrorResponse tells the client a query failed. The payload is the bare
// message string.
type ErrorResponse string

// MessagesResponse answers a QueryMessages.
type MessagesResponse struct {
	ConversationID string           `json:"conversationId"`
	Messages       []domain.Message `json:"messages"`
}

// FriendsResponse answers a QueryFriends.
type FriendsResponse struct {
	Friends []domain.FriendProfile `json:"friends"`
}

func (ErrorResponse) responseOp() string    { return "error" }
func (MessagesResponse) responseOp() string { return OpMessages }
func (FriendsResponse) responseOp() string  { return OpFriends }

// EncodeResponse renders a response envelope. Responses are built from
// server-side values only, so an error return signals a bug rather than a
// runtime condition.
func EncodeResponse(r Response) ([]byte, error) {
	switch resp := r.(type) {
	case ErrorResponse:
		return encode(resp.responseOp(), string(resp))
	case MessagesResponse, FriendsResponse:
		return encode(r.responseOp(), r)
	}
	return nil, fmt.Errorf("unknown response type %T", r)
}
