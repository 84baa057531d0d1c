package coord

import "sync"

// RWTryLock is a reader/writer lock whose read side never blocks: it
// either acquires immediately or reports failure. A pending writer blocks
// new readers from joining so a steady stream of readers cannot starve a
// writer forever. The zero value is ready to use.
//
// A notifyable's chain lock and per-sub-document locks are plain
// sync.Mutex values, not RWTryLock.
type RWTryLock struct {
	mu            sync.Mutex
	cond          *sync.Cond
	once          sync.Once
	readers       int
	writerWaiting bool
	writerHeld    bool
}

func (l *RWTryLock) init() {
	l.once.Do(func() {
		l.cond = sync.NewCond(&l.mu)
	})
}

// TryRLock acquires a read lock iff no writer holds or is waiting for the
// lock. It never blocks.
func (l *RWTryLock) TryRLock() bool {
	l.init()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writerHeld || l.writerWaiting {
		return false
	}

	l.readers++

	return true
}

func (l *RWTryLock) RUnlock() {
	l.init()
	l.mu.Lock()
	l.readers--
	done := l.readers == 0
	l.mu.Unlock()

	if done {
		l.cond.Broadcast()
	}
}

// WLock blocks until there are no readers and no other writer holding the
// lock.
func (l *RWTryLock) WLock() {
	l.init()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.writerWaiting = true

	for l.readers > 0 || l.writerHeld {
		l.cond.Wait()
	}

	l.writerWaiting = false
	l.writerHeld = true
}

func (l *RWTryLock) WUnlock() {
	l.init()
	l.mu.Lock()
	l.writerHeld = false
	l.mu.Unlock()
	l.cond.Broadcast()
}
