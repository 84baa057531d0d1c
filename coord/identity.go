package coord

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
)

var processTag = uuid.New().String()[:8]

// ProcessIdentity returns the "hostname:pid:tid" triple the wire formats in
// §6 call for. Go exposes no stable, addressable OS thread id the way the
// original C++ clusterlib did (goroutines are multiplexed over threads and
// migrate between them), so the tid field is a random tag generated once
// per process and reused by every goroutine in it; it is opaque to every
// reader in this codebase and only needs to distinguish one process's bids
// and requests from another's.
func ProcessIdentity() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), processTag)
}

var requestCounter uint64

// NewRequestID returns a fresh "hostname:pid:tid:counter" id suitable for
// an RPC envelope's "id" field.
func NewRequestID() string {
	n := atomic.AddUint64(&requestCounter, 1)
	return fmt.Sprintf("%s:%d", ProcessIdentity(), n)
}
