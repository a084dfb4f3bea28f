package domain

import "time"

// Message is a single entry in a two-party conversation. FromChooser records
// which side wrote it; clients order by SentAt.
type Message struct {
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sentAt"`
	FromChooser bool      `json:"fromChooser"`
}
