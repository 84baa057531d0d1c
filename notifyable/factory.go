package notifyable

import (
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yahoo/clusterlib-go/cache"
	"github.com/yahoo/clusterlib-go/election"
	"github.com/yahoo/clusterlib-go/errs"
	"github.com/yahoo/clusterlib-go/event"
	"github.com/yahoo/clusterlib-go/key"
	"github.com/yahoo/clusterlib-go/repository"
)

// Factory is the notifyable cache/factory (C3): it interns at most one
// instance per live key, materializes instances from the repository on
// first touch (collapsing concurrent first-touches of the same key via
// singleflight.Group, per SPEC_FULL's §5 implementation note), and owns
// the readiness watch every notifyable installs on its own znode.
type Factory struct {
	repo     *repository.Repository
	handlers *CachedObjectChangeHandlers
	bridge   *event.Bridge

	internMu sync.Mutex
	interned map[string]*Notifyable

	sf singleflight.Group

	// warmCache is C11: an optional local snapshot store a reconnecting
	// process can read last-known snapshots from before synchronize()
	// catches the repository session back up. Nil means no warm cache
	// is configured, in which case GetCachedSnapshot always misses.
	warmCache *cache.Store

	// election is C5's leader-election engine. Nil means the factory
	// does not install leadership watches, in which case Group.KnownLeader
	// always returns "".
	election *election.Engine
}

func NewFactory(repo *repository.Repository, bridge *event.Bridge) *Factory {
	f := &Factory{
		repo:     repo,
		bridge:   bridge,
		interned: make(map[string]*Notifyable),
	}
	f.handlers = NewCachedObjectChangeHandlers(bridge)
	return f
}

func (f *Factory) ChangeHandlers() *CachedObjectChangeHandlers { return f.handlers }

// UseWarmCache opts the factory into C11's local warm-cache snapshot
// store: every readiness-watch firing and initial materialization
// writes the notifyable's own znode data into store, keyed by the
// notifyable's path, when that data is empty or parses as a JSON object
// (anything else is skipped). The snapshot is recorded with version 0;
// sub-document bodies are not written.
func (f *Factory) UseWarmCache(store *cache.Store) { f.warmCache = store }

// UseElection opts the factory into installing a self-reinstalling
// leadership watch on every Group it materializes, so Group.KnownLeader
// reflects live "_currentLeader" changes instead of always reading "".
func (f *Factory) UseElection(elect *election.Engine) {
	f.election = elect
}

// GetCachedSnapshot returns the last warm-cache snapshot recorded for
// path, if any, and whether one was found. It does not consult the
// notifyable's state, so the snapshot carries no staleness mark.
func (f *Factory) GetCachedSnapshot(path string) (cache.Snapshot, bool, error) {
	if f.warmCache == nil {
		return cache.Snapshot{}, false, nil
	}
	snap, found, err := f.warmCache.Get(path)
	if err != nil || !found {
		return cache.Snapshot{}, found, err
	}
	return snap, found, nil
}

func (f *Factory) cacheSnapshot(path string, data []byte) {
	if f.warmCache == nil {
		return
	}

	var body map[string]interface{}
	if len(data) != 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			return
		}
	}

	_ = f.warmCache.Put(path, body, 0, time.Now().UnixMilli())
}

// GetNotifyableFromKey resolves the interned notifyable for path,
// materializing it from the repository on a cache miss. create, when
// true, creates the backing znode (and any missing ancestors) if it does
// not already exist instead of failing; no child directories are created.
func (f *Factory) GetNotifyableFromKey(kind key.Kind, path string, create bool) (*Notifyable, error) {
	if n := f.lookupInterned(path); n != nil {
		n.addRef()
		return n, nil
	}

	v, err, _ := f.sf.Do(path, func() (interface{}, error) {
		if n := f.lookupInterned(path); n != nil {
			return n, nil
		}
		return f.materialize(kind, path, create)
	})
	if err != nil {
		return nil, err
	}

	n := v.(*Notifyable)
	n.addRef()
	return n, nil
}

func (f *Factory) lookupInterned(path string) *Notifyable {
	f.internMu.Lock()
	defer f.internMu.Unlock()
	return f.interned[path]
}

// materialize verifies (and optionally creates) the backing znode,
// constructs the in-memory variant, installs the readiness watch, and
// inserts the instance into the interning map. This is
// initializeCachedRepresentation from §4.3.
func (f *Factory) materialize(kind key.Kind, path string, create bool) (*Notifyable, error) {
	exists, _, err := f.repo.Exists(path, nil)
	if err != nil {
		return nil, err
	}

	if !exists {
		if !create {
			return nil, errs.InvalidArgumentsf("notifyable %q does not exist", path)
		}
		if err := f.repo.EnsurePath(path, []byte{}); err != nil {
			return nil, err
		}
	}

	n := newNotifyable(kind, path)
	f.installReadinessWatch(n)
	if f.election != nil && kind == key.KindGroup {
		f.installLeadershipWatch(n)
	}

	data, _, err := f.repo.GetData(path, nil)
	if err == nil {
		n.observeReady(data)
		f.cacheSnapshot(path, data)
	}

	f.internMu.Lock()
	f.interned[path] = n
	f.internMu.Unlock()

	return n, nil
}

// installReadinessWatch arms (or re-arms) the data watch backing the
// ready protocol. It is self-reinstalling: every firing re-observes the
// data and immediately re-arms before returning, so the cache never goes
// watch-less across a firing.
func (f *Factory) installReadinessWatch(n *Notifyable) {
	var handler repository.WatchHandler
	handler = func(ev repository.Event) {
		data, _, err := f.repo.GetData(n.Key, handler)
		if err != nil {
			return
		}
		n.observeReady(data)
		f.cacheSnapshot(n.Key, data)
		if f.bridge != nil {
			f.bridge.Fire(n.Key, event.KindDataChanged)
		}
	}

	_, _, _ = f.repo.GetData(n.Key, handler)
}

// MarkReady publishes the ready sentinel to n's znode and transitions it
// to READY as soon as that write succeeds, without waiting for the
// resulting watch firing.
func (f *Factory) MarkReady(n *Notifyable) error {
	if err := n.requireLive(); err != nil {
		return err
	}
	_, err := f.repo.SetData(n.Key, []byte(readySentinel), -1)
	if err != nil {
		return err
	}
	n.setState(StateReady)
	return nil
}

// ReleaseRef decrements n's refcount and, if it reaches zero, removes it
// from the interning map. A subsequent GetNotifyableFromKey for the same
// key simply rematerializes.
func (f *Factory) ReleaseRef(n *Notifyable) {
	if !n.releaseRef() {
		return
	}

	f.internMu.Lock()
	if f.interned[n.Key] == n {
		delete(f.interned, n.Key)
	}
	f.internMu.Unlock()
}

// Remove deletes n's backing znode and transitions it to REMOVED.
// MarkReady and Remove fail with ObjectRemovedException on a REMOVED
// instance (via requireLive); the variant accessors and sub-document
// operations do not check the state and still run on a REMOVED instance.
func (f *Factory) Remove(n *Notifyable) error {
	if err := n.requireLive(); err != nil {
		return err
	}

	if err := f.repo.DeleteRecursive(n.Key); err != nil {
		return err
	}

	n.setState(StateRemoved)

	f.internMu.Lock()
	if f.interned[n.Key] == n {
		delete(f.interned, n.Key)
	}
	f.internMu.Unlock()

	return nil
}

// Synchronize issues a repository sync on path and blocks until the
// synthetic sync event has drained the user-event queue past every watch
// firing that preceded this call — the strict happens-before barrier
// §4.3 and §5 require. It is implemented directly against the
// repository rather than through the change-handler registry, since the
// barrier must observe raw watch delivery order, not any one handler's
// reinstall timing.
func (f *Factory) Synchronize(path string) error {
	done := make(chan struct{})

	barrier := repository.WatchHandler(func(repository.Event) {
		close(done)
	})

	if err := f.repo.SyncAndBarrier(path, barrier); err != nil {
		return err
	}

	<-done
	return nil
}
