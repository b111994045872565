// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are transient: they live for one fanout and are never stored.
package domain

import (
	"time"
)

// Message is a chat line relayed to every connection.
type Message struct {
	DisplayName string
	Text        string
	CreatedAt   time.Time
	SenderID    ConnectionID
}

// Presence texts shown to the other participants.
func JoinedText(name string) string { return name + " joined the chat" }

func LeftText(name string) string { return name + " left the chat" }
