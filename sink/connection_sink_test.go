package sink

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnectionSink_Consume(t *testing.T) {
	req := require.New(t)
	s := NewConnectionSink(1)
	ctx := context.Background()

	// Given a sink with room for one event
	req.NoError(s.Consume(ctx, event.UsersCount{Count: 1}))

	// When a second one arrives before the writer drained the first
	err := s.Consume(ctx, event.UsersCount{Count: 2})

	// Then it is dropped instead of blocking
	req.ErrorIs(err, errors.ErrSinkFull)
	req.Equal(event.UsersCount{Count: 1}, <-s.Outbound)
}

func TestConnectionSink_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	s := NewConnectionSink(1)

	s.Close()
	s.Close()

	req.ErrorIs(s.Consume(context.Background(), event.UsersCount{}), errors.ErrConnectionClosed)
	_, ok := <-s.Outbound
	req.False(ok)
}

func TestConnectionSink_Canceled_Context(t *testing.T) {
	req := require.New(t)
	s := NewConnectionSink(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req.ErrorIs(s.Consume(ctx, event.UsersCount{}), context.Canceled)
	req.Empty(s.Outbound)
}
