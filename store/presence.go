package store

import (
	"context"
	"fmt"
	"time"
)

// UpdateChooseePresence upserts the choosee's liveness stamp for a
// conversation. chooserHash is stored rather than a username: the choosee
// only ever knows the chooser through the hash slot of the conversation id.
func (s *Store) UpdateChooseePresence(ctx context.Context, conversationID string, occurredAt time.Time, leaving bool, chooserHash string) error {
	const stmt = `INSERT INTO choosee_presence (conversation_id, occurred_at, leaving, chooser_hash) VALUES (?, ?, ?, ?)`

	err := s.session.Query(stmt, conversationID, occurredAt, leaving, chooserHash).
		WithContext(ctx).
		Idempotent(true).
		Exec()
	if err != nil {
		return fmt.Errorf("update choosee presence: %w", err)
	}
	return nil
}
