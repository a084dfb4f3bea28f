package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longregen/zap/domain"
)

var sentAt = time.Date(2026, time.August, 26, 14, 30, 0, 0, time.UTC)

func TestDecodeOperation(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Operation
	}{
		{
			name: "messages query",
			in:   `{"op":"messages","d":{"conversationId":"conv-1","take":20,"afterSentAt":"2026-08-26T14:30:00Z"}}`,
			want: QueryMessages{ConversationID: "conv-1", Take: 20, AfterSentAt: sentAt},
		},
		{
			name: "choose",
			in:   `{"op":"choose","d":{"content":"hello","chooseeUsername":"bob"}}`,
			want: MutationChoose{Content: "hello", ChooseeUsername: "bob"},
		},
		{
			name: "send",
			in:   `{"op":"send","d":{"content":"hi","conversationId":"conv-1"}}`,
			want: MutationSend{Content: "hi", ConversationID: "conv-1"},
		},
		{
			name: "register presence",
			in:   `{"op":"registerPresenceChoosee","d":{"conversationId":"conv-1","leaving":true}}`,
			want: MutationRegisterPresenceChoosee{ConversationID: "conv-1", Leaving: true},
		},
		{
			name: "friends query",
			in:   `{"op":"friends","d":{}}`,
			want: QueryFriends{},
		},
		{
			name: "create friend request",
			in:   `{"op":"createFriendRequest","d":{"senderName":"Alice","receiverUsername":"bob","receiverName":"Bob"}}`,
			want: MutationCreateFriendRequest{SenderName: "Alice", ReceiverUsername: "bob", ReceiverName: "Bob"},
		},
		{
			name: "accept friend request",
			in:   `{"op":"acceptFriendRequest","d":{"senderUsername":"alice","senderName":"Alice","receiverName":"Bob"}}`,
			want: MutationAcceptFriendRequest{SenderUsername: "alice", SenderName: "Alice", ReceiverName: "Bob"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeOperation([]byte(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeOperationRejectsGarbage(t *testing.T) {
	for _, in := range []string{
		"not-json",
		`{"op":"unknown","d":{}}`,
		`{"op":"send"}`,
		`{"op":"send","d":"not-an-object"}`,
		`[1,2,3]`,
	} {
		if _, err := DecodeOperation([]byte(in)); err == nil {
			t.Errorf("DecodeOperation(%q) succeeded, want error", in)
		}
	}
}

func TestEncodeResponse(t *testing.T) {
	data, err := EncodeResponse(ErrorResponse("Failed to get messages for this conversation"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"error","d":"Failed to get messages for this conversation"}`, string(data))

	data, err = EncodeResponse(MessagesResponse{
		ConversationID: "conv-1",
		Messages: []domain.Message{
			{Content: "hi", SentAt: sentAt, FromChooser: true},
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"op":"messages","d":{"conversationId":"conv-1","messages":[{"content":"hi","sentAt":"2026-08-26T14:30:00Z","fromChooser":true}]}}`,
		string(data))

	data, err = EncodeResponse(FriendsResponse{Friends: []domain.FriendProfile{
		{Username: "bob", Name: "Bob", FriendshipStartedOn: sentAt},
	}})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"op":"friends","d":{"friends":[{"username":"bob","name":"Bob","friendshipStartedOn":"2026-08-26T14:30:00Z"}]}}`,
		string(data))
}

func TestUserEventRoundTrip(t *testing.T) {
	events := []UserEvent{
		ChosenEvent{ConversationID: "conv-1", Content: "hello", SentAt: sentAt},
		MessageEvent{ConversationID: "conv-1", Content: "hi", SentAt: sentAt},
		ChooseePresenceEvent{ConversationID: "conv-1", Leaving: true, OccurredAt: sentAt},
	}

	for _, event := range events {
		data, err := EncodeUserEvent(event)
		require.NoError(t, err)

		decoded, err := DecodeUserEvent(data)
		require.NoError(t, err)
		assert.Equal(t, event, decoded)
	}
}

func TestEncodeUserEventWire(t *testing.T) {
	data, err := EncodeUserEvent(MessageEvent{ConversationID: "conv-1", Content: "hi", SentAt: sentAt})
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"message","d":{"conversationId":"conv-1","content":"hi","sentAt":"2026-08-26T14:30:00Z"}}`, string(data))
}

func TestNotificationEncodesAsEvent(t *testing.T) {
	event := ChooseePresenceEvent{ConversationID: "conv-1", Leaving: false, OccurredAt: sentAt}

	fromEvent, err := EncodeUserEvent(event)
	require.NoError(t, err)

	fromNotification, err := Notification{Event: event}.Encode()
	require.NoError(t, err)

	assert.Equal(t, fromEvent, fromNotification)
}

func TestDecodeUserEventRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "not-json", `{"op":"nope","d":{}}`, `{"op":"chosen"}`} {
		if _, err := DecodeUserEvent([]byte(in)); err == nil {
			t.Errorf("DecodeUserEvent(%q) succeeded, want error", in)
		}
	}
}
