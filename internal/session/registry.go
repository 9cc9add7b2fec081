package session

import "sync"

// Registry is the single-slot holder for the live session. At most one
// session is live process-wide; installing a new one supersedes the old
// without closing its channel.
//
// Session-affecting work routinely spans suspension points (service calls,
// network sends) that can race with a disconnect, so mutators and long
// computations re-check liveness through IsLive before touching anything
// further. Identity is pointer identity.
type Registry struct {
	mu   sync.Mutex
	live *Session
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Install makes s the live session, superseding any previous one. It
// returns the session that was displaced, if any.
func (r *Registry) Install(s *Session) (displaced *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	displaced = r.live
	r.live = s
	return displaced
}

// Live returns the current live session, or nil.
func (r *Registry) Live() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// IsLive reports whether s is still the live session.
func (r *Registry) IsLive(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return s != nil && r.live == s
}

// Clear removes s if it is still live and reports whether it did. A clear
// that loses the race against a superseding Install is a no-op, so stale
// disconnects cannot tear down a newer session.
func (r *Registry) Clear(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s == nil || r.live != s {
		return false
	}
	r.live = nil
	return true
}
