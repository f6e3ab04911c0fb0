package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/isdelr/taskboard-be/internal/monitoring"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/process"
)

// Version is reported by the root endpoint.
const Version = "2.0.0"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StatsSource hands out the most recent resource sample.
type StatsSource interface {
	Latest() monitoring.Snapshot
}

// HealthHandler serves the public root and health endpoints.
type HealthHandler struct {
	db          Pinger
	stats       StatsSource
	environment string
	started     time.Time
	now         func() time.Time
}

// NewHealthHandler creates a new HealthHandler. stats may be nil.
func NewHealthHandler(db Pinger, stats StatsSource, environment string) *HealthHandler {
	return &HealthHandler{db: db, stats: stats, environment: environment, started: time.Now(), now: time.Now}
}

// MemoryStats is the resident and virtual size of the server process in bytes.
type MemoryStats struct {
	RSS uint64 `json:"rss"`
	VMS uint64 `json:"vms"`
}

// ResourceStats is the last background sample of CPU and connection pool use.
type ResourceStats struct {
	SampledAt      time.Time `json:"sampled_at"`
	CPUPercent     float64   `json:"cpu_percent"`
	OpenConns      int       `json:"open_conns"`
	InUseConns     int       `json:"in_use_conns"`
	WaitCount      int64     `json:"wait_count"`
	WaitDurationMs int64     `json:"wait_duration_ms"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string         `json:"status"`
	Uptime      float64        `json:"uptime"`
	Memory      MemoryStats    `json:"memory"`
	Resources   *ResourceStats `json:"resources,omitempty"`
	Database    string         `json:"database"`
	Timestamp   time.Time      `json:"timestamp"`
	Environment string         `json:"environment"`
}

// Root describes the API and its endpoints.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message":     "Taskboard API v" + Version,
		"environment": h.environment,
		"version":     Version,
		"endpoints": map[string]any{
			"auth": map[string]string{
				"register": "POST /api/auth/register",
				"login":    "POST /api/auth/login",
			},
			"users": map[string]string{
				"list": "GET /api/users",
				"me":   "GET /api/users/me",
				"byId": "GET /api/users/{id}",
			},
			"tasks": map[string]string{
				"list":   "GET /api/tasks",
				"get":    "GET /api/tasks/{id}",
				"create": "POST /api/tasks",
				"update": "PUT /api/tasks/{id}",
				"delete": "DELETE /api/tasks/{id}",
			},
			"events": map[string]string{
				"recent": "GET /api/events",
			},
			"ws": "GET /api/ws",
		},
	})
}

// Health reports process and database status. An unreachable database
// answers 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		Uptime:      h.now().Sub(h.started).Seconds(),
		Memory:      processMemory(),
		Database:    "connected",
		Timestamp:   h.now().UTC(),
		Environment: h.environment,
		Resources:   h.resources(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Health check: database unreachable")
		resp.Status = "degraded"
		resp.Database = "disconnected"
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}

// resources is nil until the stat updater has taken its first sample.
func (h *HealthHandler) resources() *ResourceStats {
	if h.stats == nil {
		return nil
	}
	snap := h.stats.Latest()
	if snap.At.IsZero() {
		return nil
	}
	return &ResourceStats{
		SampledAt:      snap.At.UTC(),
		CPUPercent:     snap.CPUPercent,
		OpenConns:      snap.OpenConns,
		InUseConns:     snap.InUseConns,
		WaitCount:      snap.WaitCount,
		WaitDurationMs: snap.WaitDuration.Milliseconds(),
	}
}

func processMemory() MemoryStats {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn().Err(err).Msg("Could not inspect server process")
		return MemoryStats{}
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		log.Warn().Err(err).Msg("Could not read process memory")
		return MemoryStats{}
	}
	return MemoryStats{RSS: info.RSS, VMS: info.VMS}
}
