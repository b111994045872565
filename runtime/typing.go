package runtime

import (
	"chat-relay/domain"

	"github.com/samber/lo"
)

// TypingSet tracks the sessions currently composing a message.
//
// Membership is keyed on the connection, not on the display name, so two
// sessions sharing a name keep separate indicators: one of them stopping or
// leaving never clears the other. Members aggregates names for display.
// Not safe for concurrent use.
type TypingSet struct {
	order []domain.ConnectionID
	names map[domain.ConnectionID]string
}

func NewTypingSet() *TypingSet {
	return &TypingSet{
		order: nil,
		names: make(map[domain.ConnectionID]string),
	}
}

// SetTyping inserts the session on true and removes it on false. Both are idempotent.
func (t *TypingSet) SetTyping(session domain.Session, isTyping bool) {
	if !isTyping {
		t.Clear(session.ConnectionID)
		return
	}
	if _, ok := t.names[session.ConnectionID]; ok {
		return
	}
	t.names[session.ConnectionID] = session.DisplayName
	t.order = append(t.order, session.ConnectionID)
}

// Clear removes connID, typically on disconnect.
func (t *TypingSet) Clear(connID domain.ConnectionID) {
	if _, ok := t.names[connID]; !ok {
		return
	}
	delete(t.names, connID)
	t.order = lo.Without(t.order, connID)
}

// Members returns the typing display names in the order they started typing,
// each name once. The slice is a snapshot and never nil.
func (t *TypingSet) Members() []string {
	return lo.Uniq(lo.Map(t.order, func(id domain.ConnectionID, _ int) string {
		return t.names[id]
	}))
}

func (t *TypingSet) Contains(connID domain.ConnectionID) bool {
	_, ok := t.names[connID]
	return ok
}

func (t *TypingSet) Len() int {
	return len(t.order)
}
