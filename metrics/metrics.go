// Package metrics implements the metrics registry (C10): a
// prometheus.Registry populated by the repository adapter (connection
// state), the lock engine (wait time), the RPC fabric (round-trip
// latency), and the health engine (current state), exposed over the
// admin HTTP surface at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every gauge/histogram clusterlib-go populates. A nil
// *Registry is never constructed by callers; components instead receive
// one explicitly and are free to ignore a nil field (metrics are always
// optional, never load-bearing).
type Registry struct {
	reg *prometheus.Registry

	ConnectionState *prometheus.GaugeVec
	LockWaitSeconds *prometheus.HistogramVec
	RPCRoundTrip    *prometheus.HistogramVec
	HealthState     *prometheus.GaugeVec
}

// New builds a Registry with every metric registered under the
// "clusterlib" namespace.
func New() *Registry {
	reg := prometheus.NewRegistry()

	m := &Registry{
		reg: reg,
		ConnectionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clusterlib",
			Subsystem: "repository",
			Name:      "connection_state",
			Help:      "Repository adapter connection state: 0=disconnected 1=connecting 2=connected.",
		}, []string{"hosts"}),

		LockWaitSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clusterlib",
			Subsystem: "lock",
			Name:      "wait_seconds",
			Help:      "Time spent waiting to acquire a distributed lock.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),

		RPCRoundTrip: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clusterlib",
			Subsystem: "rpc",
			Name:      "round_trip_seconds",
			Help:      "Time from SendRequest to a response being observed by the caller.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		HealthState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clusterlib",
			Subsystem: "health",
			Name:      "node_state",
			Help:      "Last-reported health state of a registered node: 0=unhealthy 1=healthy.",
		}, []string{"node"}),
	}

	reg.MustRegister(m.ConnectionState, m.LockWaitSeconds, m.RPCRoundTrip, m.HealthState)
	return m
}

// Registerer exposes the underlying prometheus.Registry so the admin
// package can hand it to promhttp.HandlerFor.
func (m *Registry) Registerer() *prometheus.Registry { return m.reg }

const (
	connStateDisconnected = 0
	connStateConnecting   = 1
	connStateConnected    = 2
)

// ObserveConnectionState records the repository adapter's state as a
// gauge, keyed by the connection string so multiple repository adapters
// in one process don't collide.
func (m *Registry) ObserveConnectionState(hosts string, connected, connecting bool) {
	v := float64(connStateDisconnected)
	switch {
	case connected:
		v = connStateConnected
	case connecting:
		v = connStateConnecting
	}
	m.ConnectionState.WithLabelValues(hosts).Set(v)
}

// ObserveHealthState records a node's last-reported health as 1 (healthy)
// or 0 (unhealthy).
func (m *Registry) ObserveHealthState(nodeKey string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	m.HealthState.WithLabelValues(nodeKey).Set(v)
}
