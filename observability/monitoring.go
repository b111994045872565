package observability

import (
	"chat-relay/domain/event"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Presence is the read side of the engine state.
type Presence interface {
	Online() int
	TypingMembers() []string
}

// Connections counts live transport connections, joined or not.
type Connections interface {
	Len() int
}

// Stats aggregates what /stats exposes.
type Stats struct {
	Online          int      `json:"online"`
	TypingUsers     []string `json:"typing_users"`
	Connections     int      `json:"connections"`
	EventsProcessed uint64   `json:"events_processed"`
	EventsDropped   uint64   `json:"events_dropped"`
	Emissions       uint64   `json:"emissions"`
	WorkerRestarts  uint64   `json:"worker_restarts"`
	UptimeSeconds   int64    `json:"uptime_seconds"`
	Goroutines      int      `json:"goroutines"`
	RSSBytes        uint64   `json:"rss_bytes"`
	CPUPercent      float64  `json:"cpu_percent"`
}

// Monitor builds Stats snapshots from the engine, the hub and the telemetry counter.
type Monitor struct {
	log         *slog.Logger
	presence    Presence
	connections Connections
	counter     *event.Counter
	startedAt   time.Time
	proc        *process.Process
}

func NewMonitor(log *slog.Logger, presence Presence, connections Connections, counter *event.Counter) *Monitor {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Debug("Process metrics unavailable", "error", err)
	}
	return &Monitor{
		log:         log,
		presence:    presence,
		connections: connections,
		counter:     counter,
		startedAt:   time.Now(),
		proc:        proc,
	}
}

func (m *Monitor) Snapshot() Stats {
	stats := Stats{
		Online:          m.presence.Online(),
		TypingUsers:     m.presence.TypingMembers(),
		Connections:     m.connections.Len(),
		EventsProcessed: m.counter.Get(event.EventProcessedType),
		EventsDropped:   m.counter.Get(event.EventDroppedType),
		Emissions:       m.counter.Get(event.EmissionType),
		WorkerRestarts:  m.counter.Get(event.RestartedAfterPanicType),
		UptimeSeconds:   int64(time.Since(m.startedAt).Seconds()),
		Goroutines:      runtime.NumGoroutine(),
	}
	if m.proc == nil {
		return stats
	}
	if mem, err := m.proc.MemoryInfo(); err == nil {
		stats.RSSBytes = mem.RSS
	} else {
		m.log.Debug("Error while finding process ram usage", "error", err)
	}
	if cpu, err := m.proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	} else {
		m.log.Debug("Error while finding process cpu usage", "error", err)
	}
	return stats
}

func (m *Monitor) StatsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(m.Snapshot()); err != nil {
			m.log.Debug("Stats not written", "error", err)
		}
	})
}

// HealthHandler answers 200 as long as the process serves HTTP.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
}
