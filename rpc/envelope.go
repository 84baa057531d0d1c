package rpc

import (
	"encoding/json"

	"github.com/yahoo/clusterlib-go/errs"
)

// Request is a JSON-RPC 1.0 request envelope, per §4.6/§6. Params'
// first element may carry "_respQueueKey" identifying where the caller
// wants the response delivered; the completed queue is used otherwise.
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     string            `json:"id"`
}

const respQueueKeyField = "_respQueueKey"

// WithRespQueueKey decodes params[0] as a JSON object, injects
// "_respQueueKey", and re-encodes it, matching sendRequest's "inject
// into params[0]" rule in §4.6. If params is empty, a fresh object
// carrying just the key is created.
func WithRespQueueKey(params []json.RawMessage, respQueueKey string) ([]json.RawMessage, error) {
	var first map[string]interface{}

	if len(params) > 0 {
		if err := json.Unmarshal(params[0], &first); err != nil {
			return nil, errs.InconsistentInternalStatef("rpc: params[0] is not a JSON object: %s", err)
		}
	} else {
		first = make(map[string]interface{})
	}

	first[respQueueKeyField] = respQueueKey

	encoded, err := json.Marshal(first)
	if err != nil {
		return nil, errs.InconsistentInternalStatef("rpc: failed to re-encode params[0]: %s", err)
	}

	out := make([]json.RawMessage, len(params))
	copy(out, params)
	if len(out) == 0 {
		out = append(out, encoded)
	} else {
		out[0] = encoded
	}
	return out, nil
}

func extractRespQueueKey(params []json.RawMessage) (string, bool) {
	if len(params) == 0 {
		return "", false
	}
	var first map[string]interface{}
	if err := json.Unmarshal(params[0], &first); err != nil {
		return "", false
	}
	v, ok := first[respQueueKeyField]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Response is a JSON-RPC 1.0 response envelope.
type Response struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
	ID     string          `json:"id"`
}

func (r *Response) HasError() bool {
	return len(r.Error) > 0 && string(r.Error) != "null"
}

// GetResponseResult, GetResponseError, GetResponseID extract the
// 1.0-level fields, failing with InconsistentInternalStateException if
// the envelope is malformed — i.e. if the caller asks for the result of
// an error response or vice versa.
func (r *Response) GetResponseResult() (json.RawMessage, error) {
	if r.HasError() {
		return nil, errs.InconsistentInternalStatef("rpc: response %q carries an error, not a result", r.ID)
	}
	return r.Result, nil
}

func (r *Response) GetResponseError() (json.RawMessage, error) {
	if !r.HasError() {
		return nil, errs.InconsistentInternalStatef("rpc: response %q carries a result, not an error", r.ID)
	}
	return r.Error, nil
}

func (r *Response) GetResponseID() string {
	return r.ID
}

// CompletedEnvelope is the 3-element array placed on the completed queue
// per §6: [result, epochMsecs, humanTimestamp].
type CompletedEnvelope struct {
	Result     json.RawMessage
	EpochMsecs int64
	HumanStamp string
}

func (c CompletedEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{c.Result, c.EpochMsecs, c.HumanStamp})
}

func (c *CompletedEnvelope) UnmarshalJSON(data []byte) error {
	var raw [3]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errs.InconsistentInternalStatef("rpc: malformed completed envelope: %s", err)
	}

	c.Result = raw[0]

	if err := json.Unmarshal(raw[1], &c.EpochMsecs); err != nil {
		return errs.InconsistentInternalStatef("rpc: malformed completed envelope epoch field: %s", err)
	}

	if err := json.Unmarshal(raw[2], &c.HumanStamp); err != nil {
		return errs.InconsistentInternalStatef("rpc: malformed completed envelope timestamp field: %s", err)
	}

	return nil
}
