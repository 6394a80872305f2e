// Package audit keeps the append-only record of every attempted and applied
// change. Recording never fails from the caller's perspective: a full log
// drops its oldest entries, and retention beyond the in-memory window is an
// external concern.
package audit

import (
	"sync"
	"time"
)

// Outcome classifies what happened to one operation.
type Outcome string

const (
	// OutcomeApplied means the operation was executed successfully.
	OutcomeApplied Outcome = "applied"

	// OutcomeBlocked means guardrails rejected the operation.
	OutcomeBlocked Outcome = "blocked"

	// OutcomeFailed means the operation was attempted and failed.
	OutcomeFailed Outcome = "failed"

	// OutcomeSkipped means the operation was not attempted (dry run, or the
	// cycle aborted before reaching it).
	OutcomeSkipped Outcome = "skipped"
)

// Entry is one immutable audit record. Entries are never edited or removed
// once recorded.
type Entry struct {
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlationId"`
	Operation     string    `json:"operation"`
	Outcome       Outcome   `json:"outcome"`
	Detail        string    `json:"detail,omitempty"`
}

// DefaultMaxEntries is the in-memory retention window.
const DefaultMaxEntries = 1000

// Log is a bounded, thread-safe, append-only audit log.
type Log struct {
	mu         sync.RWMutex
	entries    []Entry
	maxEntries int
}

// NewLog creates an audit log retaining at most maxEntries records;
// maxEntries <= 0 selects DefaultMaxEntries.
func NewLog(maxEntries int) *Log {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Log{maxEntries: maxEntries}
}

// Record appends an entry, stamping the time if unset. It has no failure
// path: an audit problem must never fail a reconcile cycle.
func (l *Log) Record(entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if excess := len(l.entries) - l.maxEntries; excess > 0 {
		l.entries = append(l.entries[:0:0], l.entries[excess:]...)
	}
}

// ByCorrelation returns all entries of one reconcile cycle, oldest first.
func (l *Log) ByCorrelation(correlationID string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []Entry
	for _, e := range l.entries {
		if e.CorrelationID == correlationID {
			matched = append(matched, e)
		}
	}
	return matched
}

// Range returns all entries with since <= Timestamp < until, oldest first.
// A zero until means "no upper bound".
func (l *Log) Range(since, until time.Time) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []Entry
	for _, e := range l.entries {
		if e.Timestamp.Before(since) {
			continue
		}
		if !until.IsZero() && !e.Timestamp.Before(until) {
			continue
		}
		matched = append(matched, e)
	}
	return matched
}

// Recent returns the latest n entries, oldest first.
func (l *Log) Recent(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	return append([]Entry(nil), l.entries[len(l.entries)-n:]...)
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
