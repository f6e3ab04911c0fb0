package monitoring

import (
	"database/sql"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/process"
)

// PoolStatter exposes connection pool statistics; *sql.DB satisfies it.
type PoolStatter interface {
	Stats() sql.DBStats
}

// Snapshot is one sample of the server's resource usage.
type Snapshot struct {
	At           time.Time
	CPUPercent   float64
	RSS          uint64
	OpenConns    int
	InUseConns   int
	WaitCount    int64
	WaitDuration time.Duration
	NewWaits     int64
}

// StatUpdater periodically samples process and connection pool usage and
// logs it. A pool that starts making callers wait is logged as a warning.
type StatUpdater struct {
	db       PoolStatter
	proc     *process.Process
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once

	mu     sync.RWMutex
	latest Snapshot
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(db PoolStatter, interval time.Duration) *StatUpdater {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn().Err(err).Msg("StatUpdater: process stats unavailable")
	}
	return &StatUpdater{
		db:       db,
		proc:     proc,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Run starts the periodic updates. It returns after Stop.
func (su *StatUpdater) Run() {
	log.Info().Dur("interval", su.interval).Msg("Starting background stat updater...")
	ticker := time.NewTicker(su.interval)
	defer ticker.Stop()

	// Run once immediately on start
	su.sample()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-ticker.C:
			su.sample()
		}
	}
}

// Stop halts the periodic updates.
func (su *StatUpdater) Stop() {
	su.stopOnce.Do(func() { close(su.done) })
}

// Latest returns the most recent sample.
func (su *StatUpdater) Latest() Snapshot {
	su.mu.RLock()
	defer su.mu.RUnlock()
	return su.latest
}

func (su *StatUpdater) sample() {
	su.mu.Lock()
	prev := su.latest
	su.mu.Unlock()

	snap := Snapshot{At: time.Now()}
	if su.proc != nil {
		if cpu, err := su.proc.Percent(0); err == nil {
			snap.CPUPercent = cpu
		}
		if mem, err := su.proc.MemoryInfo(); err == nil {
			snap.RSS = mem.RSS
		}
	}

	stats := su.db.Stats()
	snap.OpenConns = stats.OpenConnections
	snap.InUseConns = stats.InUse
	snap.WaitCount = stats.WaitCount
	snap.WaitDuration = stats.WaitDuration
	snap.NewWaits = stats.WaitCount - prev.WaitCount

	su.mu.Lock()
	su.latest = snap
	su.mu.Unlock()

	event := log.Debug()
	if snap.NewWaits > 0 {
		event = log.Warn()
	}
	event.
		Float64("cpu_percent", snap.CPUPercent).
		Uint64("rss", snap.RSS).
		Int("open_conns", snap.OpenConns).
		Int("in_use", snap.InUseConns).
		Int64("new_waits", snap.NewWaits).
		Dur("wait_total", snap.WaitDuration).
		Msg("StatUpdater: resource sample")
}
