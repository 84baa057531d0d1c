// Package rpc implements the JSON-RPC 1.0 request/response fabric (C6)
// riding two repository-backed FIFO queues, grounded on the teacher's
// request-correlation shape generalized from an in-memory channel to a
// cross-process queue realized over sequential znodes.
package rpc

import (
	"sort"

	"github.com/yahoo/clusterlib-go/errs"
	"github.com/yahoo/clusterlib-go/repository"
)

const queueElementPrefix = "e-"

// put appends payload to the FIFO at queuePath by creating a new
// persistent-sequential child.
func put(repo *repository.Repository, queuePath string, payload []byte) error {
	_, _, err := repo.CreateSequence(queuePath+"/"+queueElementPrefix, payload, false)
	return err
}

// takeWaitMsecs removes and returns the oldest element of the FIFO at
// queuePath, waiting up to waitMsecs (negative = forever) for one to
// appear. A concurrent taker racing for the same element simply sees its
// delete fail with InvalidArguments, which take treats as "try the next
// oldest" rather than an error.
func takeWaitMsecs(repo *repository.Repository, queuePath string, waitMsecs int64) ([]byte, bool, error) {
	for {
		children, err := repo.GetChildren(queuePath, nil)
		if err != nil {
			return nil, false, err
		}

		sort.Strings(children)

		for _, name := range children {
			path := queuePath + "/" + name
			data, _, err := repo.GetData(path, nil)
			if err != nil {
				continue
			}
			if err := repo.Delete(path, -1); err != nil {
				if errs.Is(err, errs.InvalidArguments) {
					continue
				}
				return nil, false, err
			}
			return data, true, nil
		}

		if waitMsecs == 0 {
			return nil, false, nil
		}

		done := make(chan struct{})
		watched, err := repo.GetChildren(queuePath, func(repository.Event) { close(done) })
		if err != nil {
			return nil, false, err
		}
		if len(watched) > 0 {
			// Children already existed at watch-install time; drain them
			// now instead of blocking on a firing that may never come.
			continue
		}

		if waitMsecs < 0 {
			<-done
			continue
		}

		select {
		case <-done:
		case <-afterMillis(waitMsecs):
			return nil, false, nil
		}
	}
}

// size reports the current element count of the FIFO at queuePath.
func size(repo *repository.Repository, queuePath string) (int, error) {
	children, err := repo.GetChildren(queuePath, nil)
	if err != nil {
		return 0, err
	}
	return len(children), nil
}
