package rpc

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/yahoo/clusterlib-go/config"
	"github.com/yahoo/clusterlib-go/errs"
	"github.com/yahoo/clusterlib-go/lock"
	"github.com/yahoo/clusterlib-go/notifyable"
	"github.com/yahoo/clusterlib-go/repository"
)

// Method is a registered server-side RPC handler: decode params, do the
// work, return the JSON-encodable result.
type Method func(params []json.RawMessage) (interface{}, error)

// Manager is ClusterlibRPCManager from §4.6: it decodes inbound
// envelopes exactly once per envelope, dispatches to a registered
// Method, and publishes status/result the way §4.6 specifies.
type Manager struct {
	repo   *repository.Repository
	locks  *lock.Engine
	cfg    config.RPCManagerConfig
	callerID string

	statusList *notifyable.PropertyList

	completedQueue string

	mu      sync.Mutex
	methods map[string]Method
}

func NewManager(repo *repository.Repository, locks *lock.Engine, cfg config.RPCManagerConfig, statusList *notifyable.PropertyList, completedQueue, callerID string) *Manager {
	return &Manager{
		repo:           repo,
		locks:          locks,
		cfg:            cfg,
		callerID:       callerID,
		statusList:     statusList,
		completedQueue: completedQueue,
		methods:        make(map[string]Method),
	}
}

func (m *Manager) Register(method string, handler Method) {
	m.mu.Lock()
	m.methods[method] = handler
	m.mu.Unlock()
}

// InvokeAndResp decodes encoded exactly once, dispatches it to its
// registered method, publishes the basic-status bookends, and emits a
// result envelope to the caller's requested destination and/or the
// completed queue, per §4.6.
func (m *Manager) InvokeAndResp(encoded []byte) error {
	var req Request
	if err := json.Unmarshal(encoded, &req); err != nil {
		return errs.InconsistentInternalStatef("rpc: malformed request envelope: %s", err)
	}

	m.setMethodStatus("Starting the request: "+req.Method, m.cfg.MaxStatusRetries, m.cfg.MaxStatusShown)

	m.mu.Lock()
	method, ok := m.methods[req.Method]
	m.mu.Unlock()

	var result interface{}
	var rpcErr error
	if !ok {
		rpcErr = errs.InvalidMethodf("rpc: no method registered for %q", req.Method)
	} else {
		result, rpcErr = method(req.Params)
	}

	m.setMethodStatus("Finished the request: "+req.Method, m.cfg.MaxStatusRetries, m.cfg.MaxStatusShown)

	resp := Response{ID: req.ID}
	if rpcErr != nil {
		encodedErr, _ := json.Marshal(rpcErr.Error())
		resp.Error = encodedErr
	} else {
		encodedResult, err := json.Marshal(result)
		if err != nil {
			return errs.InconsistentInternalStatef("rpc: failed to encode result: %s", err)
		}
		resp.Result = encodedResult
	}

	respEncoded, err := json.Marshal(resp)
	if err != nil {
		return errs.InconsistentInternalStatef("rpc: failed to encode response: %s", err)
	}

	envelope := CompletedEnvelope{
		Result:     respEncoded,
		EpochMsecs: nowEpochMsecs(),
		HumanStamp: time.Now().UTC().Format(time.RFC3339),
	}
	envelopeEncoded, err := json.Marshal(envelope)
	if err != nil {
		return errs.InconsistentInternalStatef("rpc: failed to encode completed envelope: %s", err)
	}

	respQueueKey, hasDest := extractRespQueueKey(req.Params)

	if hasDest {
		if err := put(m.repo, respQueueKey, respEncoded); err != nil {
			return err
		}
	}

	if m.completedQueue != "" && (!hasDest || m.cfg.CompletedQueueMaxSize != 0) {
		if m.cfg.CompletedQueueMaxSize != 0 {
			if err := put(m.repo, m.completedQueue, envelopeEncoded); err != nil {
				return err
			}
			return m.trimCompletedQueue()
		}
	}

	return nil
}

// trimCompletedQueue drains the completed queue synchronously after each
// put to keep its size within CompletedQueueMaxSize — the conservative
// interpretation of the unspecified trim timing the design notes flag as
// an open question, resolved here as a synchronous trim.
func (m *Manager) trimCompletedQueue() error {
	if m.cfg.CompletedQueueMaxSize == config.Unbounded {
		return nil
	}

	for {
		n, err := size(m.repo, m.completedQueue)
		if err != nil {
			return err
		}
		if n <= m.cfg.CompletedQueueMaxSize {
			return nil
		}
		if _, _, err := takeWaitMsecs(m.repo, m.completedQueue, 100); err != nil {
			return err
		}
	}
}

// setMethodStatus appends [text, epochMsecs, humanTimestamp] to a JSON
// array property keyed "<callerID> <suffix>" in the manager's status
// property list, trimmed to maxShown and published under the property
// list's advisory lock, retrying on a stale version up to maxRetries
// (-1 = unbounded). Failures are silently dropped, not propagated — status
// publication is best-effort per §4.6/§7 and must never fail the RPC
// itself.
func (m *Manager) setMethodStatus(text string, maxRetries, maxShown int) {
	if m.statusList == nil {
		return
	}

	statusKey := fmt.Sprintf("%s %s", m.callerID, "status")

	attempts := 0
	for {
		if maxRetries >= 0 && attempts > maxRetries {
			return
		}
		attempts++

		lockName := "statusList"
		ok, err := m.locks.Acquire(m.statusList.Key, lockName, lock.Exclusive, lock.Identity(), -1)
		if err != nil || !ok {
			return
		}

		err = m.appendStatus(statusKey, text, maxShown)
		_ = m.locks.Release(m.statusList.Key, lockName)

		if err == nil {
			return
		}
		if !errs.Is(err, errs.BadVersion) {
			return
		}
	}
}

func (m *Manager) appendStatus(statusKey, text string, maxShown int) error {
	if err := m.statusList.Values().LoadFromRepository(m.repo); err != nil {
		return err
	}

	v, _ := m.statusList.Values().Get(statusKey)
	entries, _ := v.([]interface{})

	entries = append(entries, []interface{}{text, nowEpochMsecs(), time.Now().UTC().Format(time.RFC3339)})
	if maxShown > 0 && len(entries) > maxShown {
		entries = entries[len(entries)-maxShown:]
	}

	m.statusList.Values().Set(statusKey, entries)
	return m.statusList.Values().Publish(m.repo, false)
}
