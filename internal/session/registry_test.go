package session

import "testing"

type nopChannel struct{}

func (nopChannel) Send(any) error { return nil }
func (nopChannel) Close() error   { return nil }

func newTestSession() *Session {
	return New(nopChannel{}, "ios", "/src/a.js", &Snapshot{})
}

func TestRegistry_InstallAndLive(t *testing.T) {
	r := NewRegistry()
	if r.Live() != nil {
		t.Fatal("fresh registry should have no live session")
	}

	s := newTestSession()
	if displaced := r.Install(s); displaced != nil {
		t.Fatalf("displaced = %v, want nil", displaced)
	}
	if r.Live() != s {
		t.Fatal("installed session is not live")
	}
	if !r.IsLive(s) {
		t.Fatal("IsLive(s) = false for installed session")
	}
}

func TestRegistry_InstallSupersedes(t *testing.T) {
	r := NewRegistry()
	first := newTestSession()
	second := newTestSession()

	r.Install(first)
	if displaced := r.Install(second); displaced != first {
		t.Fatalf("displaced = %v, want first session", displaced)
	}

	if r.IsLive(first) {
		t.Error("superseded session still reported live")
	}
	if !r.IsLive(second) {
		t.Error("new session not reported live")
	}
}

func TestRegistry_ClearOnlyIfLive(t *testing.T) {
	r := NewRegistry()
	first := newTestSession()
	second := newTestSession()

	r.Install(first)
	r.Install(second)

	// A disconnect arriving late for the superseded session must not tear
	// down the one that replaced it.
	if r.Clear(first) {
		t.Error("Clear succeeded for a superseded session")
	}
	if r.Live() != second {
		t.Fatal("live session lost after stale clear")
	}

	if !r.Clear(second) {
		t.Error("Clear failed for the live session")
	}
	if r.Live() != nil {
		t.Error("registry not empty after clearing live session")
	}
	if r.Clear(second) {
		t.Error("second Clear of the same session succeeded")
	}
}

func TestSession_SetSnapshotSwapsWhole(t *testing.T) {
	s := newTestSession()
	old := s.Snapshot()

	replacement := &Snapshot{InverseDeps: map[string][]string{"b.js": {"a.js"}}}
	s.SetSnapshot(replacement)

	if s.Snapshot() != replacement {
		t.Fatal("snapshot not replaced")
	}
	if s.Snapshot() == old {
		t.Fatal("old snapshot still visible")
	}
}
