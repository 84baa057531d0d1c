// Package lock implements the distributed advisory lock engine (C4):
// ephemeral-sequential bids, lowest-sequence-wins acquisition, and
// predecessor-watch waiting via coord.SignalMap. Grounded on the
// teacher's RWTryLock/MultiLock shape (coord package) generalized from
// in-process mutual exclusion to cross-process mutual exclusion over the
// repository.
package lock

import (
	"strings"
	"sync"
	"time"

	"github.com/yahoo/clusterlib-go/coord"
	"github.com/yahoo/clusterlib-go/errs"
	"github.com/yahoo/clusterlib-go/metrics"
	"github.com/yahoo/clusterlib-go/repository"
)

// Mode is a lock bid's mode: SHARED bids never block behind another
// SHARED bid, only behind an EXCLUSIVE one; EXCLUSIVE bids block behind
// every bid ahead of them regardless of mode.
type Mode int

const (
	Exclusive Mode = iota
	Shared
)

func (m Mode) prefix() string {
	if m == Shared {
		return "SH-"
	}
	return "EX-"
}

func (m Mode) String() string {
	if m == Shared {
		return "SHARED"
	}
	return "EXCLUSIVE"
}

// record is a process-local entry in the lock registry: one per held
// lock, keyed by (notifyableKey, lockName).
type record struct {
	ownerID   string
	acquireAt time.Time
	bidPath   string
	mode      Mode
}

// Engine owns the process-wide lock registry and the SignalMap used for
// predecessor waits. One Engine is shared by every lock acquired in the
// process, mirroring the repository adapter's single-instance-per-process
// shape.
type Engine struct {
	repo    *repository.Repository
	sig     *coord.SignalMap
	metrics *metrics.Registry

	mu       sync.Mutex
	registry map[string]*record
}

func NewEngine(repo *repository.Repository) *Engine {
	return &Engine{
		repo:     repo,
		sig:      coord.NewSignalMap(),
		registry: make(map[string]*record),
	}
}

// UseMetrics opts the engine into recording each Acquire's wait time in
// reg's lock-wait histogram, labeled by mode.
func (e *Engine) UseMetrics(reg *metrics.Registry) { e.metrics = reg }

func registryKey(notifyableKey, lockName string) string {
	return notifyableKey + "\x00" + lockName
}

func locksContainer(notifyableKey, lockName string) string {
	return notifyableKey + "/_locks/" + lockName
}

// Acquire blocks until the caller owns (notifyableKey, lockName) in the
// given mode, or the deadline elapses (a negative waitMsecs waits
// forever). On timeout the caller's bid is withdrawn before returning,
// per §4.4 step 4.
func (e *Engine) Acquire(notifyableKey, lockName string, mode Mode, ownerID string, waitMsecs int64) (bool, error) {
	waitStart := time.Now()
	if e.metrics != nil {
		defer func() {
			e.metrics.LockWaitSeconds.WithLabelValues(mode.String()).Observe(time.Since(waitStart).Seconds())
		}()
	}

	container := locksContainer(notifyableKey, lockName)
	if err := e.repo.EnsurePath(container, nil); err != nil {
		return false, err
	}

	bidPrefix := container + "/" + mode.prefix()
	bidPath, seq, err := e.repo.CreateSequence(bidPrefix, coord.EncodeBidData(ownerID), true)
	if err != nil {
		return false, err
	}

	deadline := time.Time{}
	if waitMsecs >= 0 {
		deadline = time.Now().Add(time.Duration(waitMsecs) * time.Millisecond)
	}

	for {
		won, predecessor, err := e.evaluate(container, mode, seq)
		if err != nil {
			e.withdraw(bidPath)
			return false, err
		}

		if won {
			e.mu.Lock()
			e.registry[registryKey(notifyableKey, lockName)] = &record{
				ownerID:   ownerID,
				acquireAt: time.Now(),
				bidPath:   bidPath,
				mode:      mode,
			}
			e.mu.Unlock()
			return true, nil
		}

		remaining := int64(-1)
		if waitMsecs >= 0 {
			remaining = int64(time.Until(deadline) / time.Millisecond)
			if remaining <= 0 {
				e.withdraw(bidPath)
				return false, nil
			}
		}

		if !e.waitOnPredecessor(predecessor, remaining) {
			e.withdraw(bidPath)
			return false, nil
		}
	}
}

// evaluate lists the siblings in container, sorts them numerically by
// sequence suffix, and determines whether seq is the winner (no
// blocking predecessor ahead of it, per the mode rules in §4.4 step 2)
// and, if not, which sibling path to wait on next.
func (e *Engine) evaluate(container string, mode Mode, seq int64) (bool, string, error) {
	children, err := e.repo.GetChildren(container, nil)
	if err != nil {
		return false, "", err
	}

	bids := make([]bid, 0, len(children))
	for _, name := range children {
		_, n, err := repository.SplitSequenceNode(name)
		if err != nil {
			continue
		}
		m := Exclusive
		if strings.HasPrefix(name, Shared.prefix()) {
			m = Shared
		}
		bids = append(bids, bid{name: name, seq: n, mode: m})
	}

	sortBidsBySeq(bids)

	var predecessor string
	for _, b := range bids {
		if b.seq >= seq {
			break
		}
		if mode == Exclusive || b.mode == Exclusive {
			predecessor = b.name
		}
	}

	if predecessor == "" {
		return true, "", nil
	}
	return false, container + "/" + predecessor, nil
}

type bid struct {
	name string
	seq  int64
	mode Mode
}

func sortBidsBySeq(bids []bid) {
	for i := 1; i < len(bids); i++ {
		for j := i; j > 0 && bids[j-1].seq > bids[j].seq; j-- {
			bids[j-1], bids[j] = bids[j], bids[j-1]
		}
	}
}

func (e *Engine) waitOnPredecessor(predecessorPath string, waitMsecs int64) bool {
	gen := e.sig.AddRefPredMutexCond(predecessorPath)
	defer e.sig.RemoveRefPredMutexCond(predecessorPath)

	exists, _, err := e.repo.Exists(predecessorPath, func(repository.Event) {
		e.sig.SignalPredMutexCond(predecessorPath)
	})
	if err != nil || !exists {
		return true
	}

	usecs := int64(-1)
	if waitMsecs >= 0 {
		usecs = waitMsecs * 1000
	}
	return e.sig.WaitUsecsPredMutexCond(predecessorPath, usecs, gen)
}

func (e *Engine) withdraw(bidPath string) {
	_ = e.repo.Delete(bidPath, -1)
}

// Release deletes the caller's ephemeral bid and removes the local
// registry entry. Session loss releases the bid implicitly even without
// a call to Release.
func (e *Engine) Release(notifyableKey, lockName string) error {
	rk := registryKey(notifyableKey, lockName)

	e.mu.Lock()
	rec, ok := e.registry[rk]
	if ok {
		delete(e.registry, rk)
	}
	e.mu.Unlock()

	if !ok {
		return errs.InvalidMethodf("lock %q on %q is not held by this process", lockName, notifyableKey)
	}

	return e.repo.Delete(rec.bidPath, -1)
}

// LockInfo is the result of GetLockInfo: the winning bid's owner
// identity, sequence index, and the store-assigned time (epoch
// milliseconds) its ephemeral-sequential node was created — i.e. when
// the winning bid was placed, which can be earlier than the moment it
// became the lowest bid, and not when GetLockInfo was called.
type LockInfo struct {
	OwnerID        string
	SequenceIndex  int64
	OwnerTimeMsecs int64
}

// GetLockInfo reads the current winning child of (notifyableKey,
// lockName) and parses its data, per §4.4 step 6. It reflects
// cluster-wide state, not just this process's registry.
func (e *Engine) GetLockInfo(notifyableKey, lockName string) (*LockInfo, error) {
	container := locksContainer(notifyableKey, lockName)

	children, err := e.repo.GetChildren(container, nil)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, errs.InvalidMethodf("no bids outstanding for lock %q on %q", lockName, notifyableKey)
	}

	winner := ""
	var winnerSeq int64 = -1
	for _, name := range children {
		_, seq, err := repository.SplitSequenceNode(name)
		if err != nil {
			continue
		}
		if winner == "" || seq < winnerSeq {
			winner = name
			winnerSeq = seq
		}
	}

	data, stat, err := e.repo.GetData(container+"/"+winner, nil)
	if err != nil {
		return nil, err
	}

	return &LockInfo{
		OwnerID:        coord.DecodeBidData(data),
		SequenceIndex:  winnerSeq,
		OwnerTimeMsecs: stat.Ctime,
	}, nil
}

// Identity renders the "hostname:pid:tid" triple used as bid data.
func Identity() string {
	return coord.ProcessIdentity()
}
