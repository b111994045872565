package sink

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"sync"
)

var _ contract.EventSink = (*ConnectionSink)(nil)

// ConnectionSink is the outbound queue of one connection.
// Fanout writes into it, the connection's writer drains Outbound.
type ConnectionSink struct {
	mu       sync.RWMutex
	closed   bool
	Outbound chan event.Outbound
}

func NewConnectionSink(bufferSize int) *ConnectionSink {
	return &ConnectionSink{Outbound: make(chan event.Outbound, bufferSize)}
}

// Consume is called by fanout
// Redirect the event through the concerned owner of the channel
// It never waits: a full buffer drops the event and reports ErrSinkFull.
func (s *ConnectionSink) Consume(ctx context.Context, e event.Outbound) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.ErrConnectionClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case s.Outbound <- e:
		return nil
	default:
		return errors.ErrSinkFull
	}
}

// Close closes Outbound once; the writer then says goodbye to the peer.
func (s *ConnectionSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.Outbound)
}
