package notifyable

import (
	"sync"

	"github.com/yahoo/clusterlib-go/event"
)

// ChangeKind identifies which of the ten well-known handler slots in §4.3
// a given (changeKind, path) registration belongs to.
type ChangeKind int

const (
	NodeConnectionChange ChangeKind = iota
	PropertyListValuesChange
	ShardsChange
	CurrentStateChange
	DesiredStateChange
	ApplicationsChange
	GroupsChange
	NodesChange
	DataDistributionsChange
	LeadershipChange
)

// ChangeHandlerFunc reacts to a watch firing on the given path, mutating
// the relevant cached sub-document, and reports the externally-visible
// outcome. It must not perform repository I/O that would itself require
// a watch firing it is about to block on — that deadlocks the user-event
// worker, per §5.
type ChangeHandlerFunc func(n *Notifyable, path string) event.Kind

// CachedObjectChangeHandlers is the registry described in §4.3: a single
// map from (changeKind, path) to the handler responsible for reacting to
// that path's next watch firing. Dispatch additionally re-arms the watch
// (by calling the rearm callback supplied at registration) before
// returning, so the cache stays live across the next firing, and fans the
// outcome out through the event Bridge for external listeners.
type CachedObjectChangeHandlers struct {
	mu     sync.Mutex
	byPath map[changeKey]registration

	bridge *event.Bridge
}

type changeKey struct {
	kind ChangeKind
	path string
}

type registration struct {
	notifyable *Notifyable
	handler    ChangeHandlerFunc
	rearm      func()
}

func NewCachedObjectChangeHandlers(bridge *event.Bridge) *CachedObjectChangeHandlers {
	return &CachedObjectChangeHandlers{
		byPath: make(map[changeKey]registration),
		bridge: bridge,
	}
}

// Register installs (or replaces) the handler for (kind, path). rearm is
// invoked after handler returns so the underlying watch is reinstalled;
// it is the caller's (C3 materialization code's) responsibility to
// supply a rearm closure that re-issues the same repository watch call.
func (c *CachedObjectChangeHandlers) Register(kind ChangeKind, path string, n *Notifyable, handler ChangeHandlerFunc, rearm func()) {
	c.mu.Lock()
	c.byPath[changeKey{kind, path}] = registration{notifyable: n, handler: handler, rearm: rearm}
	c.mu.Unlock()
}

func (c *CachedObjectChangeHandlers) Unregister(kind ChangeKind, path string) {
	c.mu.Lock()
	delete(c.byPath, changeKey{kind, path})
	c.mu.Unlock()
}

// Dispatch looks up the registration for (kind, path), invokes its
// handler, re-arms its watch, and fans the outcome out to user-level
// listeners via the bridge. A miss (nothing registered for (kind, path),
// or the registration was removed with Unregister) is dropped silently.
// Releasing a notifyable from the interning map does not unregister it.
func (c *CachedObjectChangeHandlers) Dispatch(kind ChangeKind, path string) {
	c.mu.Lock()
	reg, ok := c.byPath[changeKey{kind, path}]
	c.mu.Unlock()
	if !ok {
		return
	}

	outcome := reg.handler(reg.notifyable, path)

	if reg.rearm != nil {
		reg.rearm()
	}

	if c.bridge != nil && outcome != event.KindNone {
		c.bridge.Fire(reg.notifyable.Key, outcome)
	}
}
