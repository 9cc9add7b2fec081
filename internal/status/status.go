// Package status exposes a JSON endpoint with dev-server process health:
// uptime, memory and CPU of this process, and the number of modules the
// live session tracks.
package status

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

type Reporter struct {
	proc    *process.Process
	started time.Time

	// trackedModules reports how many modules the live session tracks,
	// zero when no client is connected.
	trackedModules func() int
}

type Status struct {
	Uptime         string  `json:"uptime"`
	PID            int32   `json:"pid"`
	RSSBytes       uint64  `json:"rssBytes"`
	CPUPercent     float64 `json:"cpuPercent"`
	TrackedModules int     `json:"trackedModules"`
}

func NewReporter(trackedModules func() int) (*Reporter, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Reporter{
		proc:           proc,
		started:        time.Now(),
		trackedModules: trackedModules,
	}, nil
}

func (r *Reporter) Snapshot() Status {
	st := Status{
		Uptime: time.Since(r.started).Round(time.Second).String(),
		PID:    r.proc.Pid,
	}
	if mem, err := r.proc.MemoryInfo(); err == nil && mem != nil {
		st.RSSBytes = mem.RSS
	}
	if cpu, err := r.proc.CPUPercent(); err == nil {
		st.CPUPercent = cpu
	}
	if r.trackedModules != nil {
		st.TrackedModules = r.trackedModules()
	}
	return st
}

func (r *Reporter) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/status", r.handleStatus)
}

func (r *Reporter) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(r.Snapshot())
}
