// Package history keeps an in-memory log of curve snapshots taken on
// each refresh, so the API can serve recent curve evolution without a
// database.
package history

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/curvewatch/curvewatch/internal/curve"
)

// DefaultCapacity bounds the log when no explicit capacity is given.
const DefaultCapacity = 100

// Snapshot is one recorded curve state.
type Snapshot struct {
	Date        string             `json:"date"`
	Points      []curve.YieldPoint `json:"points"`
	Shape       string             `json:"shape"`
	Spread2s10s float64            `json:"2s10s_bps"`
	RecordedAt  time.Time          `json:"recorded_at"`
}

// Log is a bounded, thread-safe snapshot log. Recording into a full
// log evicts the oldest snapshot.
type Log struct {
	mu     sync.RWMutex
	cap    int
	snaps  []Snapshot
	logger *zap.Logger
}

// NewLog creates a snapshot log holding at most capacity entries.
// capacity <= 0 selects DefaultCapacity.
func NewLog(capacity int, logger *zap.Logger) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		cap:    capacity,
		logger: logger.Named("history"),
	}
}

// Record appends a snapshot of the given curve state. The point slice
// is copied; callers may reuse theirs.
func (l *Log) Record(date string, points []curve.YieldPoint, shape string, spread2s10s float64) {
	snap := Snapshot{
		Date:        date,
		Points:      append([]curve.YieldPoint(nil), points...),
		Shape:       shape,
		Spread2s10s: spread2s10s,
		RecordedAt:  time.Now(),
	}

	l.mu.Lock()
	if len(l.snaps) >= l.cap {
		evicted := l.snaps[0]
		l.snaps = l.snaps[1:]
		l.logger.Debug("evicted oldest snapshot", zap.String("date", evicted.Date))
	}
	l.snaps = append(l.snaps, snap)
	l.mu.Unlock()

	l.logger.Debug("recorded snapshot",
		zap.String("date", date),
		zap.String("shape", shape),
		zap.Int("points", len(points)))
}

// List returns the snapshots, newest first.
func (l *Log) List() []Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Snapshot, len(l.snaps))
	for i, s := range l.snaps {
		out[len(l.snaps)-1-i] = s
	}
	return out
}

// Latest returns the most recent snapshot, or false when the log is empty.
func (l *Log) Latest() (Snapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.snaps) == 0 {
		return Snapshot{}, false
	}
	return l.snaps[len(l.snaps)-1], true
}

// Len returns the number of recorded snapshots.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.snaps)
}
