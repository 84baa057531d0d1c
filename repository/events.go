package repository

import (
	"github.com/go-zookeeper/zk"
)

// Event is clusterlib's own representation of a repository watch/session
// firing. It is deliberately narrower than zk.Event: everything downstream
// of the adapter (C3's cache, C9's bridge) only ever needs the type, the
// path, and — for session events — the new connection state.
type Event struct {
	Type  zk.EventType
	State zk.State
	Path  string
	Err   error

	// watch carries the per-watch listener+context the caller supplied
	// when it installed this specific watch, if any. When nil the event
	// fans out to every registered ZKEventListener instead.
	watch *watchRegistration
}

func (e Event) IsSession() bool {
	return e.Type == zk.EventSession
}

// WatchHandler is a one-shot callback bound to a single watch at the time
// it was installed.
type WatchHandler func(Event)

type watchRegistration struct {
	handler WatchHandler
	ctx     interface{}
}

// ZKEventListener receives every event the adapter observes that did not
// carry a more specific per-watch handler, such as session transitions.
// Listeners are registered with Repository.AddListener.
type ZKEventListener interface {
	HandleEvent(Event)
}

func fromZKEvent(raw zk.Event, watch *watchRegistration) Event {
	return Event{
		Type:  raw.Type,
		State: raw.State,
		Path:  raw.Path,
		Err:   raw.Err,
		watch: watch,
	}
}

func endEvent() Event {
	return Event{Type: zk.EventSession, State: zk.StateExpired, Path: EndEventPath}
}

func syncEvent(watch *watchRegistration) Event {
	return Event{Type: zk.EventSession, State: zk.StateConnected, Path: SyncEventPath, watch: watch}
}

// watchChannel adapts a go-zookeeper watch channel (which delivers exactly
// one event then closes) back into the callback+context shape the rest of
// the adapter is built around, and forwards the translated event onto the
// adapter's raw-event queue in the same relative order the store produced
// it in, preserving the watch ordering guarantee in §6.
func (r *Repository) watchChannel(ch <-chan zk.Event, reg *watchRegistration) {
	go func() {
		raw, ok := <-ch
		if !ok {
			return
		}
		r.rawEventCh <- fromZKEvent(raw, reg)
	}()
}
