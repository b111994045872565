package event

import (
	"chat-relay/domain"
	"time"
)

// Kind names an inbound event as it appears on the wire.
type Kind string

const (
	KindJoin        Kind = "join"
	KindChatMessage Kind = "chat-message"
	KindTyping      Kind = "typing"
	KindDisconnect  Kind = "disconnect"
	KindError       Kind = "error"
)

// Inbound is an event received from one connection.
// Disconnect and TransportError are produced by the gateway, never by clients.
type Inbound interface {
	Kind() Kind
}

type Join struct {
	Name string
}

func (Join) Kind() Kind { return KindJoin }

type PostMessage struct {
	Text string
}

func (PostMessage) Kind() Kind { return KindChatMessage }

type Typing struct {
	IsTyping bool
}

func (Typing) Kind() Kind { return KindTyping }

type Disconnect struct{}

func (Disconnect) Kind() Kind { return KindDisconnect }

type TransportError struct {
	Err error
}

func (TransportError) Kind() Kind { return KindError }

// Envelope tags an inbound event with the connection it came from.
type Envelope struct {
	ConnID     domain.ConnectionID
	Event      Inbound
	ReceivedAt time.Time
}
