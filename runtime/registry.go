package runtime

import (
	"chat-relay/domain"
)

// Registry maps every joined connection to its session.
// It is not safe for concurrent use: the Engine serialises every access.
type Registry struct {
	sessions map[domain.ConnectionID]domain.Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.ConnectionID]domain.Session),
	}
}

// Register creates the session of connID. It always succeeds and names are not unique.
// The new session is counted immediately.
func (r *Registry) Register(connID domain.ConnectionID, requestedName string) domain.Session {
	session := domain.NewSession(connID, requestedName)
	r.sessions[connID] = session
	return session
}

// Remove deletes the session of connID and returns it.
// Removing an unknown or already removed connection is a no-op reporting false.
func (r *Registry) Remove(connID domain.ConnectionID) (domain.Session, bool) {
	session, ok := r.sessions[connID]
	if !ok {
		return domain.Session{}, false
	}
	delete(r.sessions, connID)
	return session, true
}

func (r *Registry) Lookup(connID domain.ConnectionID) (domain.Session, bool) {
	session, ok := r.sessions[connID]
	return session, ok
}

func (r *Registry) Count() int {
	return len(r.sessions)
}
