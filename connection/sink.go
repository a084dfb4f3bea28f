package connection

import (
	"sync"
	"time"
)

// Socket is the slice of *websocket.Conn the engine touches. Reads belong
// exclusively to the operation loop; writes go through the shared sink.
type Socket interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

const writeTimeout = 10 * time.Second

// sink serializes outbound frames. Both loops and every per-request worker
// write through it, so two senders can never interleave a frame. The
// critical section covers exactly one frame send.
type sink struct {
	mu   sync.Mutex
	conn Socket
}

func newSink(conn Socket) *sink {
	return &sink{conn: conn}
}

func (s *sink) send(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(messageType, data)
}
