package store

import (
	"context"
	"fmt"
	"time"

	"github.com/longregen/zap/domain"
)

// NewMessage appends a message to a conversation. The server assigns the
// sent_at clustering key.
func (s *Store) NewMessage(ctx context.Context, conversationID, content string, fromChooser bool) error {
	const stmt = `INSERT INTO message (conversation_id, content, sent_at, from_chooser) VALUES (?, ?, ?, ?)`

	err := s.session.Query(stmt, conversationID, content, time.Now().UTC(), fromChooser).
		WithContext(ctx).
		Idempotent(true).
		Exec()
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// GetMessages returns up to take messages strictly newer than afterSentAt.
// Ordering is left to the client.
func (s *Store) GetMessages(ctx context.Context, conversationID string, take int8, afterSentAt time.Time) ([]domain.Message, error) {
	const stmt = `SELECT content, sent_at, from_chooser FROM message WHERE conversation_id = ? AND sent_at > ? LIMIT ?`

	iter := s.session.Query(stmt, conversationID, afterSentAt, int(take)).
		WithContext(ctx).
		Idempotent(true).
		Iter()

	messages := make([]domain.Message, 0, max(int(take), 0))
	var msg domain.Message
	for iter.Scan(&msg.Content, &msg.SentAt, &msg.FromChooser) {
		messages = append(messages, msg)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	return messages, nil
}
