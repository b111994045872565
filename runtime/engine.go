// Package runtime handles event production, propagation and presence state.
// It orchestrates the system without knowing anything about the transport.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"log/slog"
	"sync"
	"time"
)

var _ contract.Dispatcher = (*Engine)(nil)

// Engine is the broadcast state machine: Connected -> Joined -> Disconnected.
//
// Every Dispatch runs under one mutex, so mutating the registry or the typing set
// and deciding the recipients happen as a single unit. Dispatch never blocks on I/O.
type Engine struct {
	mu       sync.Mutex
	log      *slog.Logger
	registry *Registry
	typing   *TypingSet
	clock    func() time.Time
}

func NewEngine(log *slog.Logger, registry *Registry, typing *TypingSet) *Engine {
	return &Engine{
		log:      log,
		registry: registry,
		typing:   typing,
		clock:    time.Now,
	}
}

// WithClock replaces the clock used to stamp outbound events.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// Dispatch applies one inbound event from connID and returns the emissions it produces.
// Events violating the lifecycle are dropped and produce nothing.
func (e *Engine) Dispatch(connID domain.ConnectionID, in event.Inbound) []event.Emission {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch evt := in.(type) {
	case event.Join:
		return e.join(connID, evt)
	case event.PostMessage:
		return e.postMessage(connID, evt)
	case event.Typing:
		return e.setTyping(connID, evt)
	case event.Disconnect:
		return e.disconnect(connID)
	case event.TransportError:
		e.log.Warn("Socket error", "conn_id", connID, "error", evt.Err)
		return nil
	default:
		e.log.Debug("Unsupported inbound event dropped", "conn_id", connID)
		return nil
	}
}

func (e *Engine) join(connID domain.ConnectionID, evt event.Join) []event.Emission {
	if _, ok := e.registry.Lookup(connID); ok {
		e.log.Debug("Join ignored, connection already joined", "conn_id", connID)
		return nil
	}
	session := e.registry.Register(connID, evt.Name)
	e.log.Info(domain.JoinedText(session.DisplayName), "conn_id", connID)

	return []event.Emission{
		event.ToOthers(connID, event.UserJoined{
			Username: session.DisplayName,
			Message:  domain.JoinedText(session.DisplayName),
			At:       e.now(),
		}),
		event.ToAll(event.UsersCount{Count: e.registry.Count()}),
	}
}

func (e *Engine) postMessage(connID domain.ConnectionID, evt event.PostMessage) []event.Emission {
	session, ok := e.registry.Lookup(connID)
	if !ok {
		e.log.Debug("Message dropped, connection has not joined", "conn_id", connID)
		return nil
	}
	msg := domain.Message{
		DisplayName: session.DisplayName,
		Text:        evt.Text,
		CreatedAt:   e.now(),
		SenderID:    connID,
	}
	e.log.Debug("Message relayed", "username", msg.DisplayName, "length", len(msg.Text))

	return []event.Emission{
		event.ToAll(event.MessagePosted{
			Username: msg.DisplayName,
			Message:  msg.Text,
			At:       msg.CreatedAt,
			SenderID: msg.SenderID,
		}),
	}
}

func (e *Engine) setTyping(connID domain.ConnectionID, evt event.Typing) []event.Emission {
	session, ok := e.registry.Lookup(connID)
	if !ok {
		e.log.Debug("Typing dropped, connection has not joined", "conn_id", connID)
		return nil
	}
	e.typing.SetTyping(session, evt.IsTyping)

	return []event.Emission{
		event.ToOthers(connID, event.TypingStatus{
			Username:    session.DisplayName,
			IsTyping:    evt.IsTyping,
			TypingUsers: e.typing.Members(),
		}),
	}
}

func (e *Engine) disconnect(connID domain.ConnectionID) []event.Emission {
	session, ok := e.registry.Remove(connID)
	if !ok {
		e.log.Debug("Anonymous connection closed", "conn_id", connID)
		return nil
	}
	e.typing.Clear(connID)
	e.log.Info(session.DisplayName+" disconnected", "conn_id", connID)

	return []event.Emission{
		event.ToOthers(connID, event.UserLeft{
			Username: session.DisplayName,
			Message:  domain.LeftText(session.DisplayName),
			At:       e.now(),
		}),
		event.ToAll(event.UsersCount{Count: e.registry.Count()}),
	}
}

// Online returns the number of joined sessions.
func (e *Engine) Online() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Count()
}

// TypingMembers returns a snapshot of the names currently typing.
func (e *Engine) TypingMembers() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.typing.Members()
}

func (e *Engine) now() time.Time {
	return e.clock().UTC()
}
