package rpc

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/yahoo/clusterlib-go/coord"
	"github.com/yahoo/clusterlib-go/errs"
	"github.com/yahoo/clusterlib-go/metrics"
	"github.com/yahoo/clusterlib-go/repository"
)

// Client is the caller side of the RPC fabric: sendRequest/
// waitMsecsResponse/getResponse* from §4.6. One Client is shared by
// every in-flight request in the process; responses are correlated by
// id through a coord.SignalMap exactly like the lock engine's
// predecessor wait.
type Client struct {
	repo    *repository.Repository
	sig     *coord.SignalMap
	metrics *metrics.Registry

	mu        sync.Mutex
	responses map[string]*Response
	inFlight  map[string]inFlightCall
	waitGen   map[string]uint64
}

type inFlightCall struct {
	method string
	sentAt time.Time
}

func NewClient(repo *repository.Repository) *Client {
	return &Client{
		repo:      repo,
		sig:       coord.NewSignalMap(),
		responses: make(map[string]*Response),
		inFlight:  make(map[string]inFlightCall),
		waitGen:   make(map[string]uint64),
	}
}

// UseMetrics opts the client into recording each request's round-trip
// latency in reg's RPC histogram, labeled by method.
func (c *Client) UseMetrics(reg *metrics.Registry) { c.metrics = reg }

// SendRequest checks that destinationQueuePath is non-empty (it does not
// resolve it to a queue beforehand; a missing queue surfaces as the
// enqueue's error), generates an id, registers interest in it, injects _respQueueKey into params[0] if
// respQueueKey is non-empty, and enqueues the encoded envelope.
func (c *Client) SendRequest(destinationQueuePath, method string, params []json.RawMessage, respQueueKey string) (string, error) {
	if destinationQueuePath == "" {
		return "", errs.InvalidArgumentsf("rpc: destination queue path must not be empty")
	}

	id := coord.NewRequestID()

	if respQueueKey != "" {
		var err error
		params, err = WithRespQueueKey(params, respQueueKey)
		if err != nil {
			return "", err
		}
	}

	req := Request{Method: method, Params: params, ID: id}
	encoded, err := json.Marshal(req)
	if err != nil {
		return "", errs.InconsistentInternalStatef("rpc: failed to encode request: %s", err)
	}

	gen := c.sig.AddRefPredMutexCond(id)

	c.mu.Lock()
	c.waitGen[id] = gen
	if c.metrics != nil {
		c.inFlight[id] = inFlightCall{method: method, sentAt: time.Now()}
	}
	c.mu.Unlock()

	if err := put(c.repo, destinationQueuePath, encoded); err != nil {
		c.sig.RemoveRefPredMutexCond(id)
		return "", err
	}

	return id, nil
}

// WaitMsecsResponse blocks for up to waitMsecs milliseconds (0 = return
// immediately, negative = forever) for a response matching id to arrive,
// as delivered by a ResponseHandler draining the response queue.
func (c *Client) WaitMsecsResponse(id string, waitMsecs int64) (*Response, bool) {
	defer c.sig.RemoveRefPredMutexCond(id)

	c.mu.Lock()
	gen := c.waitGen[id]
	delete(c.waitGen, id)
	c.mu.Unlock()

	if waitMsecs == 0 {
		return c.takeResponse(id)
	}

	usecs := int64(-1)
	if waitMsecs > 0 {
		usecs = waitMsecs * 1000
	}

	if !c.sig.WaitUsecsPredMutexCond(id, usecs, gen) {
		return nil, false
	}

	return c.takeResponse(id)
}

func (c *Client) takeResponse(id string) (*Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, ok := c.responses[id]
	if ok {
		delete(c.responses, id)
	}
	return resp, ok
}

// deliver is called by a ResponseHandler once it decodes a response
// envelope off the response queue; it stores the response and wakes
// whoever is blocked in WaitMsecsResponse for this id.
func (c *Client) deliver(resp *Response) {
	c.mu.Lock()
	c.responses[resp.ID] = resp
	call, hadCall := c.inFlight[resp.ID]
	delete(c.inFlight, resp.ID)
	c.mu.Unlock()

	if c.metrics != nil && hadCall {
		c.metrics.RPCRoundTrip.WithLabelValues(call.method).Observe(time.Since(call.sentAt).Seconds())
	}

	c.sig.SignalPredMutexCond(resp.ID)
}

func nowEpochMsecs() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}
