package event

import (
	"chat-relay/domain"
	"time"
)

// Outbound is an event sent to one or more connections.
type Outbound interface {
	Name() string
}

type UserJoined struct {
	Username string
	Message  string
	At       time.Time
}

func (UserJoined) Name() string { return "user-joined" }

type UserLeft struct {
	Username string
	Message  string
	At       time.Time
}

func (UserLeft) Name() string { return "user-left" }

type UsersCount struct {
	Count int
}

func (UsersCount) Name() string { return "users-count" }

type MessagePosted struct {
	Username string
	Message  string
	At       time.Time
	SenderID domain.ConnectionID
}

func (MessagePosted) Name() string { return "chat-message" }

type TypingStatus struct {
	Username    string
	IsTyping    bool
	TypingUsers []string
}

func (TypingStatus) Name() string { return "typing-status" }

// Connected is the gateway handshake telling a client its own connection id.
type Connected struct {
	ConnID domain.ConnectionID
}

func (Connected) Name() string { return "connect" }

// Audience selects the recipients of an emission.
type Audience int

const (
	// All connections, the sender included.
	All Audience = iota
	// Others is every connection except the sender.
	Others
)

// Emission is one outbound event with its recipient selector.
type Emission struct {
	Audience Audience
	Sender   domain.ConnectionID
	Event    Outbound
}

func ToAll(e Outbound) Emission {
	return Emission{Audience: All, Event: e}
}

func ToOthers(sender domain.ConnectionID, e Outbound) Emission {
	return Emission{Audience: Others, Sender: sender, Event: e}
}

// Delivers reports whether the emission reaches connID.
func (e Emission) Delivers(connID domain.ConnectionID) bool {
	return e.Audience == All || connID != e.Sender
}
