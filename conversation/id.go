// Package conversation implements the opaque identifier that binds two
// participants to a conversation. The identifier doubles as the access
// control witness: any operation naming a conversation is authorized by the
// caller's username hash appearing in one of the two fixed slots, with no
// table lookup on the hot path.
package conversation

import (
	"strconv"
	"time"

	"github.com/longregen/zap/hash"
)

// Role of a username relative to a conversation.
type Role int

const (
	// NotInConversation means the username hash matches neither slot.
	NotInConversation Role = iota
	// Chooser initiated the conversation.
	Chooser
	// Choosee is on the receiving end of the Choose.
	Choosee
)

func (r Role) String() string {
	switch r {
	case Chooser:
		return "chooser"
	case Choosee:
		return "choosee"
	default:
		return "notInConversation"
	}
}

// ID is a conversation identifier. Layout:
//
//	[0..22)  chooser username hash
//	[22..44) choosee username hash
//	[44..)   hour bucket: yy, month, day, hour in decimal, unpadded
type ID struct {
	inner string
}

// MinLength is the shortest well-formed identifier: two hash slots plus at
// least one bucket digit.
const MinLength = 2*hash.Length + 1

// New composes an identifier for a conversation initiated now by
// chooserUsername towards chooseeUsername.
func New(h *hash.Hasher, chooserUsername, chooseeUsername string) ID {
	return ID{inner: h.Hash(chooserUsername) + h.Hash(chooseeUsername) + HourBucket(time.Now().UTC())}
}

// Parse treats the string as an opaque identifier. No validation beyond what
// the fixed-offset accessors need; callers authorize via RoleOf.
func Parse(s string) ID {
	return ID{inner: s}
}

// HourBucket renders the time segment appended to every new identifier:
// year%100, month, day and hour concatenated without separators or padding.
func HourBucket(t time.Time) string {
	return strconv.Itoa(t.Year()%100) +
		strconv.Itoa(int(t.Month())) +
		strconv.Itoa(t.Day()) +
		strconv.Itoa(t.Hour())
}

func (id ID) String() string {
	return id.inner
}

// ChooserHash returns the first hash slot.
func (id ID) ChooserHash() string {
	return id.inner[0:hash.Length]
}

// ChooseeHash returns the second hash slot.
func (id ID) ChooseeHash() string {
	return id.inner[hash.Length : 2*hash.Length]
}

// RoleOf hashes the username and compares it against the two slots.
func (id ID) RoleOf(h *hash.Hasher, username string) Role {
	if len(id.inner) < 2*hash.Length {
		return NotInConversation
	}

	usernameHash := h.Hash(username)
	switch usernameHash {
	case id.ChooserHash():
		return Chooser
	case id.ChooseeHash():
		return Choosee
	}
	return NotInConversation
}
