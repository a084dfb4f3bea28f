// Package bus wraps the subject-addressed publish/subscribe transport used
// to fan events out between gateway connections. Subjects are username
// hashes: each connection subscribes on its own hash and publishes to its
// counterparty's.
package bus

// Bus is the two-operation contract the connection engine consumes.
type Bus interface {
	// Subscribe opens a stream of payloads for a single subject.
	Subscribe(subject string) (Subscription, error)
	// Publish is a best-effort single-shot send.
	Publish(subject string, data []byte) error
}

// Subscription is one open subject stream. Chan is closed when the stream
// terminates; the owning loop decides whether that was expected.
type Subscription interface {
	Chan() <-chan []byte
	Unsubscribe() error
}
