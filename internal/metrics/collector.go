// Package metrics provides in-memory request timing for the chat client.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Operation names recorded by the client.
const (
	OpLogin   = "login"
	OpHistory = "history"
	OpChat    = "chat"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	Failures  int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Op        string
	Count     int64
	Failures  int64
	AvgTimeMs float64
	MinTimeMs int64
	MaxTimeMs int64
}

// Collector aggregates request statistics for the lifetime of the process.
// All methods are thread-safe; a nil *Collector discards everything.
type Collector struct {
	mu  sync.RWMutex
	ops map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{ops: make(map[string]*OperationMetrics)}
}

// RecordTiming records one request. failed marks transport or status failures.
func (c *Collector) RecordTiming(op string, duration time.Duration, failed bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}

	m.Count++
	m.TotalTime += duration
	if failed {
		m.Failures++
	}
	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// Operation returns the snapshot for op, or nil if nothing was recorded.
func (c *Collector) Operation(op string) *OperationSnapshot {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	return snapshotOp(op, c.ops[op])
}

// Snapshot returns every recorded operation sorted by name.
func (c *Collector) Snapshot() []OperationSnapshot {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]OperationSnapshot, 0, len(c.ops))
	for op, m := range c.ops {
		if s := snapshotOp(op, m); s != nil {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Op < out[j].Op })
	return out
}

func snapshotOp(op string, m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}
	return &OperationSnapshot{
		Op:        op,
		Count:     m.Count,
		Failures:  m.Failures,
		AvgTimeMs: float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs: m.MinTime.Milliseconds(),
		MaxTimeMs: m.MaxTime.Milliseconds(),
	}
}
