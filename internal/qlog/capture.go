// capture.go — the host log-redirection ring buffer (spec §3
// Captured-Log-Entry, §4.4 chr.readConsoleMessages).
package qlog

import (
	"regexp"
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// Severity is a captured log entry's level.
type Severity string

const (
	SeverityDebug   Severity = "debug"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityFatal   Severity = "fatal"
)

// Entry is one captured host log message.
type Entry struct {
	Severity   Severity  `json:"severity"`
	Message    string    `json:"message"`
	SourceFile string    `json:"sourceFile,omitempty"`
	SourceLine int       `json:"sourceLine,omitempty"`
	Function   string    `json:"function,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Ring is a bounded FIFO-eviction buffer of captured log entries, written
// from any thread (the host's log-redirection callback may fire on a
// worker thread) and read from the UI thread via chr.readConsoleMessages.
type Ring struct {
	mu    deadlock.Mutex
	cap   int
	items []Entry
}

// NewRing creates a ring buffer holding at most capacity entries.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Ring{cap: capacity}
}

// Add appends an entry, evicting the oldest if the buffer is full.
func (r *Ring) Add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, e)
	if len(r.items) > r.cap {
		r.items = r.items[len(r.items)-r.cap:]
	}
}

// Clear empties the buffer.
func (r *Ring) Clear() {
	r.mu.Lock()
	r.items = nil
	r.mu.Unlock()
}

// Read returns entries matching pattern (a regexp, or empty for all) and
// onlyErrors, most recent limit entries (0 = no limit). clear empties the
// buffer after reading.
func (r *Ring) Read(pattern string, onlyErrors bool, limit int, clear bool) ([]Entry, error) {
	var re *regexp.Regexp
	if pattern != "" {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	for _, e := range r.items {
		if onlyErrors && e.Severity != SeverityError && e.Severity != SeverityFatal {
			continue
		}
		if re != nil && !re.MatchString(e.Message) {
			continue
		}
		out = append(out, e)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	if clear {
		r.items = nil
	}
	return out, nil
}

// Len reports the current entry count.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
