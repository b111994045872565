// Package domain contains core concepts of the chat system.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// ConnectionID is the opaque token the gateway assigns to a live connection.
// It is a lookup key only and never shown as a display value.
type ConnectionID string

// Session binds a chosen display name to one live connection.
// The name is fixed at creation, there is no rename.
type Session struct {
	DisplayName  string
	ConnectionID ConnectionID
}

// NewSession resolves the requested name and binds it to connID.
func NewSession(connID ConnectionID, requestedName string) Session {
	return Session{
		DisplayName:  DisplayName(requestedName),
		ConnectionID: connID,
	}
}

// DisplayName trims the requested name and falls back to a generated one when nothing is left.
func DisplayName(requested string) string {
	if name := strings.TrimSpace(requested); name != "" {
		return name
	}
	return FallbackName()
}

// FallbackName returns a name of the form User<0..999>. Uniqueness is not guaranteed.
func FallbackName() string {
	return fmt.Sprintf("User%d", rand.IntN(1000))
}
