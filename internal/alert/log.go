package alert

import (
	"sync"

	"github.com/anand121shah/tradingbot/internal/model"
)

// Filter selects alerts by symbol and priority. Empty fields match anything.
type Filter struct {
	Symbol   string
	Priority model.Priority
}

func (f Filter) match(a *model.Alert) bool {
	if f.Symbol != "" && a.Symbol != f.Symbol {
		return false
	}
	if f.Priority != "" && a.Priority != f.Priority {
		return false
	}
	return true
}

// Log is an append-only, insertion-ordered alert log.
// A positive limit keeps only the newest limit alerts; zero is unbounded.
type Log struct {
	mu     sync.RWMutex
	alerts []model.Alert
	limit  int

	dropped uint64
}

// NewLog creates an alert log. limit <= 0 means unbounded.
func NewLog(limit int) *Log {
	if limit < 0 {
		limit = 0
	}
	return &Log{limit: limit}
}

// Append adds alerts at the end of the log, preserving their order.
func (l *Log) Append(alerts ...model.Alert) {
	if len(alerts) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, a := range alerts {
		l.alerts = append(l.alerts, a.Clone())
	}
	if l.limit > 0 && len(l.alerts) > l.limit {
		over := len(l.alerts) - l.limit
		l.dropped += uint64(over)
		// Copy down so the backing array does not grow forever.
		n := copy(l.alerts, l.alerts[over:])
		clear(l.alerts[n:])
		l.alerts = l.alerts[:n]
	}
}

// Filter returns copies of matching alerts in insertion order.
func (l *Log) Filter(f Filter) []model.Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Alert, 0)
	for i := range l.alerts {
		if f.match(&l.alerts[i]) {
			out = append(out, l.alerts[i].Clone())
		}
	}
	return out
}

// Len returns the number of alerts held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.alerts)
}

// Dropped returns how many alerts were discarded by the limit.
func (l *Log) Dropped() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dropped
}
