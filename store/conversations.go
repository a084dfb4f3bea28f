package store

import (
	"context"
	"fmt"
	"time"
)

// NewConversation upserts the conversation row. Re-running the insert for
// the same id only refreshes created_at, which is why Choose can fire it
// without checking for prior existence.
func (s *Store) NewConversation(ctx context.Context, chooserUsername, chooseeUsername, conversationID string) error {
	const stmt = `INSERT INTO conversation (id, chooser_username, choosee_username, created_at) VALUES (?, ?, ?, ?)`

	err := s.session.Query(stmt, conversationID, chooserUsername, chooseeUsername, time.Now().UTC()).
		WithContext(ctx).
		Idempotent(true).
		Exec()
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}
