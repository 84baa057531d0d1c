// Package repository is the client's sole point of contact with the
// external metadata store (C1, "the repository adapter"). It owns the
// store session, translates store errors into clusterlib's typed
// exceptions, retries the handful of error codes that are safe to retry,
// and runs the two-worker watch/event pipeline every other component's
// liveness depends on.
package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-zookeeper/zk"
	"golang.org/x/sync/errgroup"

	"github.com/yahoo/clusterlib-go/config"
	"github.com/yahoo/clusterlib-go/errs"
	"github.com/yahoo/clusterlib-go/metrics"
)

// Stat mirrors the subset of the store's per-znode metadata clusterlib
// actually consumes: the version used to gate conditional writes, and
// the creation/modification timestamps (epoch milliseconds) callers like
// lock.Engine.GetLockInfo need to report when a znode was last written,
// as opposed to when it was merely read.
type Stat struct {
	Version int32
	Ctime   int64
	Mtime   int64
}

// Repository is the adapter described in §4.1. One Repository is shared by
// every notifyable the process has materialized.
type Repository struct {
	config config.ZooKeeperConfig

	stateMu     sync.Mutex
	state       State
	retriesLeft int

	conn *zk.Conn

	rawEventCh  chan Event
	userEventCh chan Event

	listenersMu sync.Mutex
	listeners   []ZKEventListener

	endOnce sync.Once

	group  *errgroup.Group
	cancel context.CancelFunc

	metrics *metrics.Registry
}

const retryBudgetAutoReconnect = 2
const retryBudgetNoReconnect = 0

const rawEventBufferSize = 4096
const userEventBufferSize = 4096

func New(cfg config.ZooKeeperConfig) *Repository {
	return &Repository{
		config:      cfg,
		state:       Disconnected,
		rawEventCh:  make(chan Event, rawEventBufferSize),
		userEventCh: make(chan Event, userEventBufferSize),
	}
}

// UseMetrics opts the adapter into recording its connection state in
// reg's connection-state gauge, labeled by the configured host string.
func (r *Repository) UseMetrics(reg *metrics.Registry) { r.metrics = reg }

func (r *Repository) AddListener(listener ZKEventListener) {
	r.listenersMu.Lock()
	r.listeners = append(r.listeners, listener)
	r.listenersMu.Unlock()
}

func (r *Repository) State() State {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.state
}

func (r *Repository) setState(s State) {
	r.stateMu.Lock()
	r.state = s
	r.stateMu.Unlock()

	if r.metrics != nil {
		r.metrics.ObserveConnectionState(r.config.Hosts, s == Connected, s == Connecting)
	}
}

// Connect establishes the store session and starts the raw-event and
// user-event workers. It blocks until the session is established or the
// configured connect timeout elapses.
func (r *Repository) Connect() error {
	r.setState(Connecting)

	conn, zkEvents, err := zk.Connect(strings.Split(r.config.Hosts, ","), r.config.ConnectTimeout())
	if err != nil {
		r.setState(Disconnected)
		return errs.Wrap(errs.SystemFailure, err, "failed to dial repository hosts")
	}
	r.conn = conn
	r.retriesLeft = r.retryBudget()

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	group, _ := errgroup.WithContext(ctx)
	r.group = group

	group.Go(func() error {
		r.pumpRawZKEvents(zkEvents)
		return nil
	})
	group.Go(func() error {
		r.rawEventWorker()
		return nil
	})
	group.Go(func() error {
		r.userEventWorker()
		return nil
	})

	select {
	case <-r.waitConnected():
		return nil
	case <-time.After(r.config.ConnectTimeout()):
		return errs.NotConnectedf("timed out waiting for repository session")
	}
}

func (r *Repository) waitConnected() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for r.State() != Connected {
			time.Sleep(5 * time.Millisecond)
		}
		close(done)
	}()
	return done
}

// pumpRawZKEvents copies the underlying client's session event channel
// onto the adapter's own raw-event queue so that synthetic events (end,
// sync) and real watch firings share one ordered pipeline.
func (r *Repository) pumpRawZKEvents(zkEvents <-chan zk.Event) {
	for raw := range zkEvents {
		r.rawEventCh <- fromZKEvent(raw, nil)
	}
}

// rawEventWorker is the first of the two cooperative workers in §4.1: it
// tracks connection state and forwards every event, verbatim, to the
// user-event worker.
func (r *Repository) rawEventWorker() {
	for event := range r.rawEventCh {
		if event.IsSession() {
			r.applySessionTransition(event)
		}

		r.userEventCh <- event

		if event.Path == EndEventPath {
			return
		}
	}
}

func (r *Repository) applySessionTransition(event Event) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	switch event.State {
	case zk.StateConnected, zk.StateHasSession:
		r.state = Connected
		r.retriesLeft = r.retryBudget()
	case zk.StateConnecting:
		r.state = Connecting
	case zk.StateExpired:
		if event.Path == EndEventPath {
			// Our own shutdown signal riding the session-event channel,
			// not a real session expiry.
			return
		}
		r.state = SessionExpired
	case zk.StateDisconnected:
		if r.state != SessionExpired {
			r.state = Disconnected
		}
	}
}

// userEventWorker is the second cooperative worker: it drains the
// user-event queue and invokes handleAsyncEvent for each entry.
func (r *Repository) userEventWorker() {
	for event := range r.userEventCh {
		r.handleAsyncEvent(event)

		if event.Path == EndEventPath {
			return
		}
	}
}

func (r *Repository) handleAsyncEvent(event Event) {
	if event.watch != nil {
		event.watch.handler(event)
		return
	}

	r.listenersMu.Lock()
	listeners := make([]ZKEventListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.listenersMu.Unlock()

	for _, listener := range listeners {
		listener.HandleEvent(event)
	}
}

func (r *Repository) retryBudget() int {
	if r.config.AutoReconnect {
		return retryBudgetAutoReconnect
	}
	return retryBudgetNoReconnect
}

// Reconnect re-establishes the session after SessionExpired. It is only
// meaningful when auto-reconnect is enabled; the caller observing
// NotConnectedException otherwise is expected to treat the session as
// permanently gone.
func (r *Repository) Reconnect() error {
	if !r.config.AutoReconnect {
		return errs.NotConnectedf("auto-reconnect disabled, session is not recoverable")
	}

	if r.conn != nil {
		r.conn.Close()
	}

	return r.Connect()
}

// Disconnect tears the session down. final=true additionally injects the
// synthetic end event exactly once so both workers unwind; subsequent
// calls with final=true are idempotent.
func (r *Repository) Disconnect(final bool) {
	if final {
		r.endOnce.Do(func() {
			r.rawEventCh <- endEvent()
		})
	}

	if r.cancel != nil {
		r.cancel()
	}
	if r.conn != nil {
		r.conn.Close()
	}

	r.setState(NoReconnect)
}

func (r *Repository) requireConnected() error {
	if r.State() == Connected {
		return nil
	}
	return errs.NotConnectedf("repository is %s", r.State())
}

// withRetry runs op, retrying it while the retry budget allows and the
// failure is ConnectionLoss or OperationTimeout; every other store error
// is translated and returned immediately.
func (r *Repository) withRetry(op func() error) error {
	attempts := r.retryBudget() + 1

	var err error
	for i := 0; i < attempts; i++ {
		err = op()
		if err == nil {
			return nil
		}

		translated := translateZKError(err)
		if !isRetryable(translated) {
			return translated
		}
		err = translated
	}

	return err
}

func isRetryable(err error) bool {
	return errs.Is(err, errs.NotConnected)
}

func translateZKError(err error) error {
	switch err {
	case nil:
		return nil
	case zk.ErrNoNode:
		return errs.Newf(errs.InvalidArguments, "no such node")
	case zk.ErrNodeExists:
		return errs.Newf(errs.InvalidArguments, "node already exists")
	case zk.ErrNoAuth:
		return errs.New(errs.NoAuth, "not authorized")
	case zk.ErrBadVersion:
		return errs.New(errs.BadVersion, "version mismatch on conditional write")
	case zk.ErrNotEmpty:
		return errs.Newf(errs.InvalidArguments, "node has children")
	case zk.ErrConnectionClosed, zk.ErrSessionExpired:
		return errs.NotConnectedf("repository connection lost: %s", err)
	case context.DeadlineExceeded:
		return errs.NotConnectedf("repository operation timed out")
	default:
		if typed, ok := err.(*errs.Error); ok {
			return typed
		}
		return errs.WithCode(errs.UnknownErrorCode, 0, err.Error())
	}
}
