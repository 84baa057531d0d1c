package notifyable

import (
	"github.com/yahoo/clusterlib-go/event"
	"github.com/yahoo/clusterlib-go/key"
	"github.com/yahoo/clusterlib-go/repository"
)

// GetApplication resolves (or materializes) the Application at path.
func (f *Factory) GetApplication(path string, create bool) (*Application, error) {
	n, err := f.GetNotifyableFromKey(key.KindApplication, path, create)
	if err != nil {
		return nil, err
	}
	return newApplication(n), nil
}

// GetGroup resolves (or materializes) the Group at path, a child of an
// Application's or another Group's "_groups" container.
func (f *Factory) GetGroup(path string, create bool) (*Group, error) {
	n, err := f.GetNotifyableFromKey(key.KindGroup, path, create)
	if err != nil {
		return nil, err
	}
	return newGroup(n), nil
}

// GetNode resolves (or materializes) the Node at path.
func (f *Factory) GetNode(path string, create bool) (*Node, error) {
	n, err := f.GetNotifyableFromKey(key.KindNode, path, create)
	if err != nil {
		return nil, err
	}
	return newNode(n), nil
}

// GetProcessSlot resolves (or materializes) the ProcessSlot at path.
func (f *Factory) GetProcessSlot(path string, create bool) (*ProcessSlot, error) {
	n, err := f.GetNotifyableFromKey(key.KindProcessSlot, path, create)
	if err != nil {
		return nil, err
	}
	return newProcessSlot(n), nil
}

// GetDataDistribution resolves (or materializes) the DataDistribution at path.
func (f *Factory) GetDataDistribution(path string, create bool) (*DataDistribution, error) {
	n, err := f.GetNotifyableFromKey(key.KindDataDistribution, path, create)
	if err != nil {
		return nil, err
	}
	return newDataDistribution(n), nil
}

// GetPropertyList resolves (or materializes) the PropertyList at path.
func (f *Factory) GetPropertyList(path string, create bool) (*PropertyList, error) {
	n, err := f.GetNotifyableFromKey(key.KindPropertyList, path, create)
	if err != nil {
		return nil, err
	}
	return newPropertyList(n), nil
}

// GetQueue resolves (or materializes) the Queue at path.
func (f *Factory) GetQueue(path string, create bool) (*Queue, error) {
	n, err := f.GetNotifyableFromKey(key.KindQueue, path, create)
	if err != nil {
		return nil, err
	}
	return newQueue(n), nil
}

// GetPropertyValueSearchParent implements CachedKeyValues' searchParent
// traversal (§4.2): if k is not set on the property list at path, it
// ascends to the same-named property list of the owning notifyable's
// parent via key.RemoveObjectFromKey and retries, until a value is
// found or the ascent runs out of ancestors.
func (f *Factory) GetPropertyValueSearchParent(path, k string) (interface{}, bool, error) {
	name := key.Name(path)
	for {
		pl, err := f.GetPropertyList(path, false)
		if err == nil {
			if err := pl.Values().LoadFromRepository(f.repo); err != nil {
				f.ReleaseRef(pl.Notifyable)
				return nil, false, err
			}
			if v, ok := pl.Values().Get(k); ok {
				f.ReleaseRef(pl.Notifyable)
				return v, true, nil
			}
			f.ReleaseRef(pl.Notifyable)
		}

		parent := key.RemoveObjectFromKey(key.RemoveObjectFromKey(path))
		if parent == "/" {
			return nil, false, nil
		}
		path = parent + "/" + key.KindPropertyList.Prefix() + "/" + name
	}
}

// GetRoot resolves (or materializes) the Root for the given root name.
func (f *Factory) GetRoot(rootName string, create bool) (*Root, error) {
	n, err := f.GetNotifyableFromKey(key.KindRoot, key.RootPath(rootName), create)
	if err != nil {
		return nil, err
	}
	return &Root{Notifyable: n}, nil
}

// ListNames lists the human names of the children of containerPath and
// arms a self-reinstalling children watch registered under changeKind —
// used by callers such as clusterlibctl status to install the watch §4.3
// requires before the caller can rely on a subsequent synchronize()
// observing a concurrent creation. owner is the notifyable the
// registration (and its eventual UserEventPayload fan-out) is attributed
// to, e.g. the Application for a GroupsChange watch on its "_groups"
// container.
func (f *Factory) ListNames(containerPath string, changeKind ChangeKind, owner *Notifyable) ([]string, error) {
	f.installChildrenWatch(containerPath, changeKind, owner)
	return f.repo.GetChildren(containerPath, nil)
}

// leadershipPath mirrors election.Engine's own "_currentLeader" layout;
// the two packages don't share an import so the fragment is duplicated
// rather than exported solely for this.
func leadershipPath(groupKey string) string { return groupKey + "/_currentLeader" }

// installLeadershipWatch arms (or re-arms) the self-reinstalling watch
// backing a Group's KnownLeader() (§4.5's LEADERSHIP_CHANGE wiring): every
// firing re-reads the winner's name through election.Engine.CurrentLeader,
// updates n's shared leader state, and dispatches LeadershipChange through
// the change-handler registry so external listeners observe the
// transition via the event Bridge. Installed once per materialized Group,
// not per GetGroup call, since only the shared Notifyable persists across
// calls.
func (f *Factory) installLeadershipWatch(n *Notifyable) {
	path := leadershipPath(n.Key)

	handlerFn := func(owner *Notifyable, _ string) event.Kind {
		name, err := f.election.CurrentLeader(owner.Key)
		if err != nil {
			return event.KindNone
		}
		owner.setKnownLeader(name)
		return event.KindDataChanged
	}

	var rearm func()
	rearm = func() {
		f.handlers.Register(LeadershipChange, path, n, handlerFn, rearm)

		onFire := func(repository.Event) { f.handlers.Dispatch(LeadershipChange, path) }
		if err := f.election.WatchLeader(n.Key, onFire); err != nil {
			// "_currentLeader" does not exist yet — no election has run.
			// Watch for its creation instead; that firing re-arms into
			// the WatchLeader branch above.
			_, _, _ = f.repo.Exists(path, onFire)
			return
		}
	}

	rearm()

	if name, err := f.election.CurrentLeader(n.Key); err == nil {
		n.setKnownLeader(name)
	}
}

func (f *Factory) installChildrenWatch(containerPath string, changeKind ChangeKind, owner *Notifyable) {
	handlerFn := func(n *Notifyable, path string) event.Kind {
		return event.KindChildrenChanged
	}

	var rearm func()
	rearm = func() {
		f.handlers.Register(changeKind, containerPath, owner, handlerFn, rearm)
		_, _ = f.repo.GetChildren(containerPath, func(repository.Event) {
			f.handlers.Dispatch(changeKind, containerPath)
		})
	}

	rearm()
}
