// Package admin implements the read-only admin HTTP/websocket surface:
// introspection of cached notifyable state, the lock registry, and
// leader elections, a Prometheus exposition endpoint, and a websocket
// stream of UserEventPayload as NDJSON. It never accepts a write — the
// non-goal carried over from the distilled spec excludes a control
// plane, not observability. Grounded on the teacher's
// server/routes/cluster.go route-struct-with-Attach shape.
package admin

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yahoo/clusterlib-go/event"
	"github.com/yahoo/clusterlib-go/lock"
	"github.com/yahoo/clusterlib-go/metrics"
	"github.com/yahoo/clusterlib-go/notifyable"
)

// Endpoint attaches the admin routes to a mux.Router.
type Endpoint struct {
	factory *notifyable.Factory
	locks   *lock.Engine
	metrics *metrics.Registry
	bridge  *event.Bridge

	upgrader websocket.Upgrader
}

func NewEndpoint(factory *notifyable.Factory, locks *lock.Engine, reg *metrics.Registry, bridge *event.Bridge) *Endpoint {
	return &Endpoint{
		factory: factory,
		locks:   locks,
		metrics: reg,
		bridge:  bridge,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Attach registers every admin route on router.
func (e *Endpoint) Attach(router *mux.Router) {
	router.HandleFunc("/v1/notifyables/{key:.*}", e.getNotifyable).Methods("GET")
	router.HandleFunc("/v1/locks", e.getLocks).Methods("GET")
	router.HandleFunc("/v1/leaders/{group:.*}", e.getLeader).Methods("GET")
	router.HandleFunc("/v1/events", e.streamEvents).Methods("GET")

	if e.metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(e.metrics.Registerer(), promhttp.HandlerOpts{})).Methods("GET")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// getNotifyable returns the cached body + version of the keyvalues
// sub-document for the notifyable named by key, without creating it if
// it is not already materialized.
func (e *Endpoint) getNotifyable(w http.ResponseWriter, r *http.Request) {
	path := "/" + mux.Vars(r)["key"]

	pl, err := e.factory.GetPropertyList(path, false)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	defer e.factory.ReleaseRef(pl.Notifyable)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":     pl.Key,
		"state":   pl.State().String(),
		"values":  pl.Values().Snapshot(),
		"version": pl.Values().Version(),
	})
}

// getLocks reports the current winner of the lock named by the "key" and
// "name" query parameters, read cluster-wide through GetLockInfo; it does
// not dump the local lock registry.
func (e *Endpoint) getLocks(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	name := r.URL.Query().Get("name")

	if key == "" || name == "" {
		writeError(w, http.StatusBadRequest, "key and name query parameters are required")
		return
	}

	info, err := e.locks.GetLockInfo(key, name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, info)
}

func (e *Endpoint) getLeader(w http.ResponseWriter, r *http.Request) {
	path := "/" + mux.Vars(r)["group"]

	group, err := e.factory.GetGroup(path, false)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	defer e.factory.ReleaseRef(group.Notifyable)

	writeJSON(w, http.StatusOK, map[string]string{
		"group":  group.Key,
		"leader": group.KnownLeader(),
	})
}

// streamEvents upgrades to a websocket connection and forwards every
// UserEventPayload the bridge fires as one NDJSON line per message,
// until the client disconnects.
func (e *Endpoint) streamEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	payloads := make(chan event.UserEventPayload, 64)
	handler := event.UserEventHandlerFunc(func(p event.UserEventPayload) {
		select {
		case payloads <- p:
		default:
			// Slow consumer: drop rather than block the bridge's fan-out.
		}
	})

	e.bridge.AddGlobalUserEventHandler(handler)
	defer e.bridge.RemoveGlobalUserEventHandler(handler)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case p := <-payloads:
			raw, err := json.Marshal(p)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, append(raw, '\n')); err != nil {
				return
			}
		}
	}
}
