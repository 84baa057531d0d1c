// Package health implements the periodic health engine (C7): a worker
// bound to one node that runs a user-supplied checker on a cadence that
// flips between "healthy" and "unhealthy" intervals, publishing the
// result into the node's current-state document, grounded on the
// teacher's dedicated-worker-goroutine-with-condition-wait shape
// (cloud/raft.RaftNode.run generalized from a fixed tick to a
// last-result-dependent cadence).
package health

import (
	"sync"
	"time"

	"github.com/yahoo/clusterlib-go/config"
	"github.com/yahoo/clusterlib-go/errs"
	"github.com/yahoo/clusterlib-go/metrics"
	"github.com/yahoo/clusterlib-go/notifyable"
	"github.com/yahoo/clusterlib-go/repository"
)

// Status is the outcome of one health check.
type Status int

const (
	Healthy Status = iota
	Unhealthy
)

func (s Status) String() string {
	if s == Unhealthy {
		return "unhealthy"
	}
	return "healthy"
}

// Checker is the user callback a registered node supplies.
// CheckHealth returning an error is equivalent to returning Unhealthy
// with the error's text as the description.
type Checker interface {
	CheckHealth() (Status, string, error)
}

// CheckerFunc adapts a plain function to a Checker.
type CheckerFunc func() (Status, string, error)

func (f CheckerFunc) CheckHealth() (Status, string, error) { return f() }

// Engine runs at most one worker per node; RegisterHealthChecker fails
// with AlreadyConnectedException if the node's "_connected" ephemeral
// already exists, per §4.7.
type Engine struct {
	repo    *repository.Repository
	cfg     config.HealthCheckConfig
	metrics *metrics.Registry

	mu      sync.Mutex
	workers map[string]*worker
}

func NewEngine(repo *repository.Repository, cfg config.HealthCheckConfig) *Engine {
	return &Engine{repo: repo, cfg: cfg, workers: make(map[string]*worker)}
}

// UseMetrics opts the engine into recording every check's outcome in
// reg's per-node health-state gauge.
func (e *Engine) UseMetrics(reg *metrics.Registry) { e.metrics = reg }

type worker struct {
	node      *notifyable.Node
	checker   Checker
	terminate chan struct{}
	done      chan struct{}
	cond      *sync.Cond
	mu        sync.Mutex
}

// RegisterHealthChecker creates the node's "_connected" ephemeral child
// and starts its dedicated worker.
func (e *Engine) RegisterHealthChecker(node *notifyable.Node, checker Checker) error {
	if e.cfg.MsecsPerCheckIfHealthy <= 0 || e.cfg.MsecsPerCheckIfUnhealthy <= 0 {
		return errs.InvalidArgumentsf("health: both cadences must be positive")
	}

	e.mu.Lock()
	if _, exists := e.workers[node.Key]; exists {
		e.mu.Unlock()
		return errs.AlreadyConnectedf("health checker already registered for %q", node.Key)
	}

	exists, _, err := e.repo.Exists(node.ConnectedPath(), nil)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if exists {
		e.mu.Unlock()
		return errs.AlreadyConnectedf("node %q is already connected", node.Key)
	}

	if err := e.repo.CreateEphemeral(node.ConnectedPath(), []byte{}); err != nil {
		e.mu.Unlock()
		return err
	}

	w := &worker{
		node:      node,
		checker:   checker,
		terminate: make(chan struct{}),
		done:      make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	e.workers[node.Key] = w
	e.mu.Unlock()

	go e.runWorker(w)
	return nil
}

func (e *Engine) runWorker(w *worker) {
	defer close(w.done)

	lastUnhealthy := false

	for {
		select {
		case <-w.terminate:
			return
		default:
		}

		status, desc, err := w.checker.CheckHealth()
		if err != nil {
			status, desc = Unhealthy, err.Error()
		}

		w.node.CurrentState().SetClientState(status.String(), desc)
		if err := w.node.CurrentState().Publish(e.repo, true); err != nil {
			// Best-effort: a failed status publish does not stop the
			// worker, it retries on the next cadence.
		}

		if e.metrics != nil {
			e.metrics.ObserveHealthState(w.node.Key, status == Healthy)
		}

		lastUnhealthy = status == Unhealthy

		interval := e.cfg.HealthyInterval()
		if lastUnhealthy {
			interval = e.cfg.UnhealthyInterval()
		}

		if !w.sleepOrTerminate(interval) {
			return
		}
	}
}

func (w *worker) sleepOrTerminate(d time.Duration) bool {
	select {
	case <-w.terminate:
		return false
	case <-time.After(d):
		return true
	}
}

// UnregisterHealthChecker signals the worker to terminate, waits for it
// to exit, and deletes the node's "_connected" child.
func (e *Engine) UnregisterHealthChecker(nodeKey string) error {
	e.mu.Lock()
	w, ok := e.workers[nodeKey]
	if ok {
		delete(e.workers, nodeKey)
	}
	e.mu.Unlock()

	if !ok {
		return errs.InvalidMethodf("no health checker registered for %q", nodeKey)
	}

	close(w.terminate)
	<-w.done

	return e.repo.Delete(nodeKey+"/_connected", -1)
}
