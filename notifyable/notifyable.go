// Package notifyable implements the cached namespace of coordination
// objects (C3): the Notifyable base type and its variants, the
// interning factory that keeps at most one in-memory instance per live
// key, the ready protocol, and the change-handler registry that §4.3
// describes. Grounded on the teacher's node/partition ownership
// bookkeeping, generalized from a flat keyspace to clusterlib's
// kind-tagged tree.
package notifyable

import (
	"sync"
	"sync/atomic"

	"github.com/yahoo/clusterlib-go/errs"
	"github.com/yahoo/clusterlib-go/key"
)

// State is a notifyable's lifecycle state, per §3.
type State int32

const (
	StateInit State = iota
	StateReady
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateReady:
		return "READY"
	case StateRemoved:
		return "REMOVED"
	default:
		return "UNKNOWN"
	}
}

// readySentinel is the literal znode data value that marks a notifyable
// ready; any other value, including empty, means not-ready.
const readySentinel = "ready"

// Notifyable is the cached representation shared by every variant. Kind
// distinguishes Root/Application/Group/Node/ProcessSlot/DataDistribution/
// PropertyList/Queue; variant-specific behavior lives in the small
// wrapper types in variants.go, which all embed *Notifyable.
type Notifyable struct {
	Key  string
	Name string
	Kind key.Kind

	state atomic.Int32
	refs  atomic.Int32

	chainMu sync.Mutex
	parent  *Notifyable
	group   *Notifyable
	app     *Notifyable

	subDocsMu sync.Mutex
	subDocs   map[string]*subDocument

	leaderMu sync.Mutex
	leader   string
}

func newNotifyable(k key.Kind, path string) *Notifyable {
	n := &Notifyable{
		Key:     path,
		Name:    key.Name(path),
		Kind:    k,
		subDocs: make(map[string]*subDocument),
	}
	n.state.Store(int32(StateInit))
	return n
}

func (n *Notifyable) State() State {
	return State(n.state.Load())
}

func (n *Notifyable) setState(s State) {
	n.state.Store(int32(s))
}

// requireLive returns ObjectRemovedException if this notifyable has
// transitioned to REMOVED. Factory.MarkReady and Factory.Remove are the
// operations that call it.
func (n *Notifyable) requireLive() error {
	if n.State() == StateRemoved {
		return errs.ObjectRemovedf("notifyable %q has been removed", n.Key)
	}
	return nil
}

// observeReady interprets raw znode data per the ready protocol: the
// literal string "ready" transitions this instance to READY; anything
// else (including empty data) means not-ready and leaves an INIT
// instance in INIT. A REMOVED instance never re-enters READY.
func (n *Notifyable) observeReady(data []byte) {
	if n.State() == StateRemoved {
		return
	}
	if string(data) == readySentinel {
		n.setState(StateReady)
	} else if n.State() == StateReady {
		// the sentinel only ever regresses a READY instance when the
		// cache revalidates from a stale watch; treat as still ready
		// until an explicit transition (REMOVED) says otherwise.
	}
}

func (n *Notifyable) addRef() {
	n.refs.Add(1)
}

// releaseRef decrements the refcount and reports whether it reached
// zero; the factory removes the instance from the interning map in
// that case. Change-handler registrations for the instance are left in
// place, so a later watch firing for this key still reaches it.
func (n *Notifyable) releaseRef() bool {
	return n.refs.Add(-1) <= 0
}

func (n *Notifyable) setParent(p *Notifyable) {
	n.chainMu.Lock()
	n.parent = p
	n.chainMu.Unlock()
}

func (n *Notifyable) Parent() *Notifyable {
	n.chainMu.Lock()
	defer n.chainMu.Unlock()
	return n.parent
}

func (n *Notifyable) setGroup(g *Notifyable) {
	n.chainMu.Lock()
	n.group = g
	n.chainMu.Unlock()
}

func (n *Notifyable) Group() *Notifyable {
	n.chainMu.Lock()
	defer n.chainMu.Unlock()
	return n.group
}

func (n *Notifyable) setApplication(a *Notifyable) {
	n.chainMu.Lock()
	n.app = a
	n.chainMu.Unlock()
}

func (n *Notifyable) Application() *Notifyable {
	n.chainMu.Lock()
	defer n.chainMu.Unlock()
	return n.app
}

// knownLeader and setKnownLeader back a Group's KnownLeader(): they live
// on the shared Notifyable (one per live key) rather than on the
// per-call Group wrapper, so a leadership watch firing on one caller's
// wrapper is visible to every other caller resolving the same key.
func (n *Notifyable) knownLeader() string {
	n.leaderMu.Lock()
	defer n.leaderMu.Unlock()
	return n.leader
}

func (n *Notifyable) setKnownLeader(name string) {
	n.leaderMu.Lock()
	n.leader = name
	n.leaderMu.Unlock()
}
