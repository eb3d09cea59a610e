package core

import (
	"context"
	"sync"
	"time"

	"github.com/vovakirdan/chatrelay-server/internal/proto"
)

// WebSocket close codes passed through Channel.Close (RFC 6455 values).
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	ClosePolicyViolation = 1008
)

// Channel is the send side of one client's connection as seen by the core.
// The transport layer owns the underlying socket; the core never parses
// raw bytes.
type Channel interface {
	Send(ctx context.Context, env *proto.Envelope) error
	Close(code int, reason string) error
}

// Session is one connected client's identity and channel handle for the
// lifetime of its connection.
type Session struct {
	ClientID   string
	Username   string
	JoinedAt   time.Time
	Channel    Channel
	Attributes map[string]string
}

// NewSession builds a session for a freshly connected client.
func NewSession(clientID, username string, ch Channel) *Session {
	return &Session{
		ClientID:   clientID,
		Username:   username,
		JoinedAt:   time.Now(),
		Channel:    ch,
		Attributes: make(map[string]string),
	}
}

// SessionRegistry tracks live sessions keyed by client id. All operations
// are safe for concurrent use; snapshots preserve insertion order.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
}

// NewSessionRegistry builds an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
	}
}

// Add registers a session. A duplicate client id overwrites the previous
// session (last write wins) and keeps its insertion position.
func (r *SessionRegistry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ClientID]; !exists {
		r.order = append(r.order, s.ClientID)
	}
	r.sessions[s.ClientID] = s
}

// Remove deregisters and returns the session, or nil if it was not
// present. Safe to call more than once for the same id.
func (r *SessionRegistry) Remove(clientID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[clientID]
	if !exists {
		return nil
	}
	delete(r.sessions, clientID)
	for i, id := range r.order {
		if id == clientID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return s
}

// Snapshot returns a point-in-time copy of the live sessions, safe to
// iterate while the registry keeps mutating.
func (r *SessionRegistry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		if s, ok := r.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Count returns the number of active sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
