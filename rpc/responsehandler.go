package rpc

import (
	"encoding/json"

	"github.com/yahoo/clusterlib-go/repository"
)

// ResponseHandler is JSONRPCResponseHandler from §4.6: on any event it
// drains the response queue with a bounded per-element timeout, decodes
// each envelope, and hands it to the Client awaiting that id. A
// malformed (non-JSON) payload is forwarded to the completed queue
// rather than dropped, since it still represents work someone is owed
// an answer for.
type ResponseHandler struct {
	repo            *repository.Repository
	client          *Client
	responseQueue   string
	completedQueue  string
}

const perElementDrainMsecs = 500

func NewResponseHandler(repo *repository.Repository, client *Client, responseQueue, completedQueue string) *ResponseHandler {
	return &ResponseHandler{
		repo:           repo,
		client:         client,
		responseQueue:  responseQueue,
		completedQueue: completedQueue,
	}
}

// HandleUserEvent drains every currently-available response, decoding
// and dispatching each; the event itself is ignored. The method name does
// not match repository.ZKEventListener, so a ResponseHandler cannot be
// passed to Repository.AddListener.
func (h *ResponseHandler) HandleUserEvent(repository.Event) {
	h.Drain()
}

// Drain repeatedly takes from the response queue (500ms per element,
// per §4.6) until it empties.
func (h *ResponseHandler) Drain() {
	for {
		data, ok, err := takeWaitMsecs(h.repo, h.responseQueue, perElementDrainMsecs)
		if err != nil || !ok {
			return
		}

		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			_ = put(h.repo, h.completedQueue, data)
			continue
		}

		h.client.deliver(&resp)
	}
}
