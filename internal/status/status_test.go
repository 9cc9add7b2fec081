package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestSnapshot(t *testing.T) {
	r, err := NewReporter(func() int { return 42 })
	if err != nil {
		t.Fatalf("NewReporter: %v", err)
	}

	st := r.Snapshot()
	if st.PID != int32(os.Getpid()) {
		t.Errorf("pid = %d, want %d", st.PID, os.Getpid())
	}
	if st.TrackedModules != 42 {
		t.Errorf("tracked modules = %d, want 42", st.TrackedModules)
	}
	if st.Uptime == "" {
		t.Error("uptime empty")
	}
}

func TestHandleStatus(t *testing.T) {
	r, err := NewReporter(nil)
	if err != nil {
		t.Fatalf("NewReporter: %v", err)
	}

	mux := http.NewServeMux()
	r.SetupRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var st Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("body %s: %v", rec.Body.Bytes(), err)
	}
	if st.PID != int32(os.Getpid()) {
		t.Errorf("pid = %d", st.PID)
	}
}
