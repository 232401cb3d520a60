package enrich

import (
	"sort"
	"sync"
	"sync/atomic"
)

// QuotaState tracks per-source quota exhaustion for the process lifetime.
// Flags are monotonic: set on the first rate-limit signal, never reset until
// restart. Safe for concurrent use across pipeline invocations.
type QuotaState struct {
	mu    sync.Mutex
	flags map[string]*atomic.Bool
}

// NewQuotaState creates quota tracking for the named sources.
func NewQuotaState(sources ...string) *QuotaState {
	q := &QuotaState{flags: make(map[string]*atomic.Bool, len(sources))}
	for _, s := range sources {
		q.flags[s] = &atomic.Bool{}
	}
	return q
}

func (q *QuotaState) flag(source string) *atomic.Bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	f, ok := q.flags[source]
	if !ok {
		f = &atomic.Bool{}
		q.flags[source] = f
	}
	return f
}

// Exhaust marks a source as out of quota.
func (q *QuotaState) Exhaust(source string) {
	q.flag(source).Store(true)
}

// Exhausted reports whether a source is out of quota.
func (q *QuotaState) Exhausted(source string) bool {
	return q.flag(source).Load()
}

// ExhaustedNames returns the sorted names of all exhausted sources.
func (q *QuotaState) ExhaustedNames() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var names []string
	for name, f := range q.flags {
		if f.Load() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
