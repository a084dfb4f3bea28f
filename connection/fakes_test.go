package connection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/longregen/zap/bus"
	"github.com/longregen/zap/domain"
)

// fakeSocket scripts inbound frames and records outbound ones.
type fakeSocket struct {
	inbound chan inboundFrame
	writes  chan []byte

	mu       sync.Mutex
	writeErr error

	closed    chan struct{}
	closeOnce sync.Once
}

type inboundFrame struct {
	messageType int
	data        []byte
	err         error
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		inbound: make(chan inboundFrame, 16),
		writes:  make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

func (s *fakeSocket) ReadMessage() (int, []byte, error) {
	select {
	case f := <-s.inbound:
		return f.messageType, f.data, f.err
	case <-s.closed:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseAbnormalClosure}
	}
}

func (s *fakeSocket) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	err := s.writeErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.writes <- data
	return nil
}

func (s *fakeSocket) SetWriteDeadline(time.Time) error { return nil }

func (s *fakeSocket) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeSocket) failWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

func (s *fakeSocket) sendText(data string) {
	s.inbound <- inboundFrame{messageType: websocket.TextMessage, data: []byte(data)}
}

func (s *fakeSocket) sendClose(code int) {
	s.inbound <- inboundFrame{err: &websocket.CloseError{Code: code}}
}

// fakeBus routes publishes to matching subscriptions, like a real broker,
// and records them for assertions.
type fakeBus struct {
	mu        sync.Mutex
	subs      map[string]*fakeSubscription
	published chan publishRecord
	pubErr    error
}

type publishRecord struct {
	subject string
	data    []byte
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		subs:      make(map[string]*fakeSubscription),
		published: make(chan publishRecord, 64),
	}
}

func (b *fakeBus) Subscribe(subject string) (bus.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &fakeSubscription{ch: make(chan []byte, 16)}
	b.subs[subject] = sub
	return sub, nil
}

func (b *fakeBus) Publish(subject string, data []byte) error {
	b.mu.Lock()
	err := b.pubErr
	sub := b.subs[subject]
	b.mu.Unlock()

	if err != nil {
		return err
	}
	if sub != nil {
		sub.deliver(data)
	}
	b.published <- publishRecord{subject: subject, data: data}
	return nil
}

func (b *fakeBus) failPublishes(err error) {
	b.mu.Lock()
	b.pubErr = err
	b.mu.Unlock()
}

func (b *fakeBus) subscription(subject string) *fakeSubscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subs[subject]
}

type fakeSubscription struct {
	ch   chan []byte
	once sync.Once
}

func (s *fakeSubscription) Chan() <-chan []byte { return s.ch }
func (s *fakeSubscription) Unsubscribe() error  { return nil }

func (s *fakeSubscription) deliver(data []byte) {
	defer func() { recover() }() // tolerate delivery after terminate
	s.ch <- data
}

// terminate simulates the subscription stream dying underneath the loop.
func (s *fakeSubscription) terminate() {
	s.once.Do(func() { close(s.ch) })
}

// fakeStore records calls and can be told to fail reads.
type fakeStore struct {
	mu       sync.Mutex
	calls    chan string
	messages []domain.Message
	readErr  error

	newConversations []newConversationCall
	newMessages      []newMessageCall
	presence         []presenceCall
}

type newConversationCall struct {
	chooser, choosee, conversationID string
}

type newMessageCall struct {
	conversationID, content string
	fromChooser             bool
}

type presenceCall struct {
	conversationID string
	leaving        bool
	chooserHash    string
}

func newFakeStore() *fakeStore {
	return &fakeStore{calls: make(chan string, 64)}
}

func (s *fakeStore) failReads(err error) {
	s.mu.Lock()
	s.readErr = err
	s.mu.Unlock()
}

func (s *fakeStore) NewConversation(_ context.Context, chooser, choosee, conversationID string) error {
	s.mu.Lock()
	s.newConversations = append(s.newConversations, newConversationCall{chooser, choosee, conversationID})
	s.mu.Unlock()
	s.calls <- "NewConversation"
	return nil
}

func (s *fakeStore) NewMessage(_ context.Context, conversationID, content string, fromChooser bool) error {
	s.mu.Lock()
	s.newMessages = append(s.newMessages, newMessageCall{conversationID, content, fromChooser})
	s.mu.Unlock()
	s.calls <- "NewMessage"
	return nil
}

func (s *fakeStore) UpdateChooseePresence(_ context.Context, conversationID string, _ time.Time, leaving bool, chooserHash string) error {
	s.mu.Lock()
	s.presence = append(s.presence, presenceCall{conversationID, leaving, chooserHash})
	s.mu.Unlock()
	s.calls <- "UpdateChooseePresence"
	return nil
}

func (s *fakeStore) GetMessages(context.Context, string, int8, time.Time) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls <- "GetMessages"
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.messages, nil
}

func (s *fakeStore) GetFriends(context.Context, string) ([]domain.FriendProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls <- "GetFriends"
	return nil, s.readErr
}

func (s *fakeStore) CreateFriendRequest(context.Context, domain.Profile, domain.Profile) error {
	s.calls <- "CreateFriendRequest"
	return nil
}

func (s *fakeStore) DeleteFriendRequest(context.Context, domain.Profile, domain.Profile) error {
	s.calls <- "DeleteFriendRequest"
	return nil
}

func (s *fakeStore) CreateFriendship(context.Context, domain.Profile, domain.Profile, []domain.Profile) error {
	s.calls <- "CreateFriendship"
	return nil
}

// waitForCalls blocks until every named store call has been observed, in
// any order.
func waitForCalls(t *testing.T, s *fakeStore, want ...string) {
	t.Helper()
	pending := make(map[string]int, len(want))
	for _, w := range want {
		pending[w]++
	}
	deadline := time.After(2 * time.Second)
	for remaining := len(want); remaining > 0; {
		select {
		case got := <-s.calls:
			if pending[got] > 0 {
				pending[got]--
				remaining--
			}
		case <-deadline:
			t.Fatalf("timed out waiting for store calls %v", want)
		}
	}
}

func waitForPublish(t *testing.T, b *fakeBus) publishRecord {
	t.Helper()
	select {
	case rec := <-b.published:
		return rec
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a publish")
		return publishRecord{}
	}
}

func waitForWrite(t *testing.T, s *fakeSocket) []byte {
	t.Helper()
	select {
	case data := <-s.writes:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an outbound frame")
		return nil
	}
}
