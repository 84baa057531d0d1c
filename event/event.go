// Package event implements the translation of repository watch firings
// into externally visible clusterlib events (C9), grounded on the
// original's EventSource/UserEventPayload design
// (_examples/original_source/src/core/event.h) generalized from a
// template-heavy C++ observer hierarchy to a single concrete Go type plus
// a snapshot-under-iteration dispatch loop.
package event

import (
	"sync"
)

// Kind is the externally-visible outcome a change handler reports after
// reacting to a watch firing.
type Kind int

const (
	KindNone Kind = iota
	KindCreated
	KindDeleted
	KindDataChanged
	KindChildrenChanged
	KindSessionExpired
	KindSessionConnected
)

func (k Kind) String() string {
	switch k {
	case KindCreated:
		return "CREATED"
	case KindDeleted:
		return "DELETED"
	case KindDataChanged:
		return "DATA_CHANGED"
	case KindChildrenChanged:
		return "CHILDREN_CHANGED"
	case KindSessionExpired:
		return "SESSION_EXPIRED"
	case KindSessionConnected:
		return "SESSION_CONNECTED"
	default:
		return "NONE"
	}
}

// UserEventPayload is the event delivered to user-level listeners: the
// notifyable key the event concerns, and the externally-visible outcome.
type UserEventPayload struct {
	Key   string
	Event Kind
}

// UserEventHandler receives UserEventPayloads for the keys it registered
// interest in.
type UserEventHandler interface {
	HandleUserEvent(UserEventPayload)
}

// UserEventHandlerFunc adapts a plain function to a UserEventHandler.
type UserEventHandlerFunc func(UserEventPayload)

func (f UserEventHandlerFunc) HandleUserEvent(p UserEventPayload) { f(p) }

// Bridge is the event/watch bridge (C9): it maintains the multimap of
// (notifyable key) -> registered UserEventHandlers and fans out a
// UserEventPayload to every handler registered for that key, iterating a
// snapshot copy so a handler that registers or unregisters during
// delivery never races the in-flight fan-out.
type Bridge struct {
	mu       sync.RWMutex
	handlers map[string][]UserEventHandler
	global   []UserEventHandler
}

func NewBridge() *Bridge {
	return &Bridge{handlers: make(map[string][]UserEventHandler)}
}

// AddGlobalUserEventHandler registers handler for every key's events,
// e.g. the admin websocket stream, which has no single key of interest.
func (b *Bridge) AddGlobalUserEventHandler(handler UserEventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.global = append(b.global, handler)
}

func (b *Bridge) RemoveGlobalUserEventHandler(handler UserEventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, h := range b.global {
		if h == handler {
			b.global = append(b.global[:i], b.global[i+1:]...)
			break
		}
	}
}

func (b *Bridge) AddUserEventHandler(key string, handler UserEventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[key] = append(b.handlers[key], handler)
}

func (b *Bridge) RemoveUserEventHandler(key string, handler UserEventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.handlers[key]
	for i, h := range handlers {
		if h == handler {
			b.handlers[key] = append(handlers[:i], handlers[i+1:]...)
			break
		}
	}
	if len(b.handlers[key]) == 0 {
		delete(b.handlers, key)
	}
}

// Fire delivers a UserEventPayload for key to every handler currently
// registered for it. Handlers never observe repository or cache locks
// held by the caller — by the time Fire runs, C3's change handler has
// already mutated the cache and released every lock it held.
func (b *Bridge) Fire(key string, kind Kind) {
	b.mu.RLock()
	snapshot := make([]UserEventHandler, 0, len(b.handlers[key])+len(b.global))
	snapshot = append(snapshot, b.handlers[key]...)
	snapshot = append(snapshot, b.global...)
	b.mu.RUnlock()

	payload := UserEventPayload{Key: key, Event: kind}
	for _, h := range snapshot {
		h.HandleUserEvent(payload)
	}
}
