// Package metrics is a small in-process metrics collector. Counters and
// timers are kept in memory and exposed as a snapshot at /metrics; nothing
// here is shipped anywhere.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Names of the counters this service records.
const (
	CounterEventsCreated       = "events_created"
	CounterEventsUpdated       = "events_updated"
	CounterEventsCancelled     = "events_cancelled"
	CounterEventsDeleted       = "events_deleted"
	CounterEventsCompleted     = "events_completed"
	CounterSignupsAdmitted     = "signups_admitted"
	CounterSignupsRejected     = "signups_rejected"
	CounterNotificationsSent   = "notifications_sent"
	CounterNotificationsFailed = "notifications_failed"
	CounterSweepRuns           = "sweep_runs"
)

// TimerSnapshot captures timing information for one named timer.
type TimerSnapshot struct {
	Count         int64   `json:"count"`
	TotalTimeMs   int64   `json:"total_time_ms"`
	AverageTimeMs float64 `json:"average_time_ms"`
	MaxTimeMs     int64   `json:"max_time_ms"`
}

// Snapshot is the point-in-time view returned by the metrics endpoint.
type Snapshot struct {
	UptimeSeconds int64                    `json:"uptime_seconds"`
	Counters      map[string]int64         `json:"counters"`
	Timers        map[string]TimerSnapshot `json:"timers"`
}

type timer struct {
	count       int64
	totalTimeMs int64
	maxTimeMs   int64
}

// Metrics is the main metrics collector
type Metrics struct {
	mu        sync.RWMutex
	counters  map[string]*int64
	timers    map[string]*timer
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		counters:  make(map[string]*int64),
		timers:    make(map[string]*timer),
		startTime: time.Now(),
	}
}

// IncrementCounter increments a counter by 1
func (m *Metrics) IncrementCounter(name string) {
	m.IncrementCounterBy(name, 1)
}

// IncrementCounterBy increments a counter by the specified value
func (m *Metrics) IncrementCounterBy(name string, value int64) {
	m.mu.RLock()
	counter, exists := m.counters[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		if counter, exists = m.counters[name]; !exists {
			var c int64
			counter = &c
			m.counters[name] = counter
		}
		m.mu.Unlock()
	}

	atomic.AddInt64(counter, value)
}

// RecordDuration records one observation of a named timer.
func (m *Metrics) RecordDuration(name string, d time.Duration) {
	ms := d.Milliseconds()

	m.mu.Lock()
	defer m.mu.Unlock()

	t, exists := m.timers[name]
	if !exists {
		t = &timer{}
		m.timers[name] = t
	}
	t.count++
	t.totalTimeMs += ms
	if ms > t.maxTimeMs {
		t.maxTimeMs = ms
	}
}

// GetSnapshot returns the current state of all metrics.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: int64(time.Since(m.startTime).Seconds()),
		Counters:      make(map[string]int64, len(m.counters)),
		Timers:        make(map[string]TimerSnapshot, len(m.timers)),
	}
	for name, counter := range m.counters {
		snap.Counters[name] = atomic.LoadInt64(counter)
	}
	for name, t := range m.timers {
		ts := TimerSnapshot{
			Count:       t.count,
			TotalTimeMs: t.totalTimeMs,
			MaxTimeMs:   t.maxTimeMs,
		}
		if t.count > 0 {
			ts.AverageTimeMs = float64(t.totalTimeMs) / float64(t.count)
		}
		snap.Timers[name] = ts
	}
	return snap
}
