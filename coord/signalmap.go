package coord

import (
	"sync"
	"time"
)

type signalEntry struct {
	refs int
	ch   chan struct{}
	gen  uint64
}

// SignalMap is a refcounted keyed rendezvous primitive: AddRef registers
// interest in a key, Signal wakes whoever is waiting on it, and
// WaitUsecs blocks the caller until the next Signal or until a timeout
// elapses. It underpins the distributed lock's predecessor wait (C4) and
// the RPC fabric's response rendezvous (C6) — both are "go to sleep until
// someone pokes this specific key" waits.
//
// Signal is edge-triggered (closing a channel), but the caller's own
// re-check of its condition (repository.Exists, a response map lookup)
// happens in a separate step from AddRef, so a Signal landing in that gap
// must not be lost: AddRef hands back the generation counter in effect at
// that instant, and Wait compares it against the entry's current
// generation before ever blocking, returning immediately if they differ.
type SignalMap struct {
	mu      sync.Mutex
	entries map[string]*signalEntry
}

func NewSignalMap() *SignalMap {
	return &SignalMap{entries: make(map[string]*signalEntry)}
}

// AddRefPredMutexCond registers interest in key and returns the
// generation in effect at this instant; pass it to WaitUsecsPredMutexCond
// so a Signal occurring between this call and the wait is never lost.
func (m *SignalMap) AddRefPredMutexCond(key string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		entry = &signalEntry{ch: make(chan struct{})}
		m.entries[key] = entry
	}
	entry.refs++
	return entry.gen
}

func (m *SignalMap) RemoveRefPredMutexCond(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.entries, key)
	}
}

// SignalPredMutexCond wakes every caller currently blocked in
// WaitUsecsPredMutexCond for this key. It is a no-op if nobody has
// registered an interest in the key.
func (m *SignalMap) SignalPredMutexCond(key string) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if !ok {
		m.mu.Unlock()
		return
	}
	old := entry.ch
	entry.ch = make(chan struct{})
	entry.gen++
	m.mu.Unlock()

	close(old)
}

// WaitUsecsPredMutexCond blocks until the key is signaled or the timeout
// elapses, returning true on a signal and false on a timeout (or when the
// key has no registered interest). since must be the generation
// AddRefPredMutexCond returned for this same interest registration: if
// the entry's generation has already moved past since, a Signal happened
// in the window between AddRef and this call, and Wait returns
// immediately rather than blocking on a channel that was swapped out from
// under it. A negative timeout waits forever. The key must already have a
// reference via AddRefPredMutexCond.
func (m *SignalMap) WaitUsecsPredMutexCond(key string, usecs int64, since uint64) bool {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if !ok {
		m.mu.Unlock()
		return false
	}
	if entry.gen != since {
		m.mu.Unlock()
		return true
	}
	ch := entry.ch
	m.mu.Unlock()

	if usecs < 0 {
		<-ch
		return true
	}

	select {
	case <-ch:
		return true
	case <-time.After(time.Duration(usecs) * time.Microsecond):
		return false
	}
}
