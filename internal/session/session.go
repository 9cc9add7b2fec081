package session

import "sync"

// Channel is the duplex message channel to one connected client. The
// transport implements it; everything above the transport sends through it.
type Channel interface {
	// Send marshals v as JSON and queues it as one text frame. It returns
	// an error if the channel is closed or the client cannot keep up.
	Send(v any) error

	// Close tears the channel down. Safe to call more than once.
	Close() error
}

// Session tracks one connected development client: the bundle it is
// running (platform + entry file), its channel, and the cached dependency
// snapshot for that bundle.
type Session struct {
	Platform  string
	EntryFile string
	Channel   Channel

	mu   sync.Mutex
	snap *Snapshot
}

func New(ch Channel, platform, entryFile string, snap *Snapshot) *Session {
	return &Session{
		Platform:  platform,
		EntryFile: entryFile,
		Channel:   ch,
		snap:      snap,
	}
}

// Snapshot returns the session's current dependency snapshot.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// SetSnapshot replaces the session's snapshot. The swap is atomic: readers
// see either the old snapshot or the new one, never a mix of fields.
func (s *Session) SetSnapshot(snap *Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}
