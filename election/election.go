// Package election implements leader election (C5) over the same
// ephemeral-sequential bid infrastructure lock.Engine uses, per §4.5:
// the lowest surviving bid under a group's "_leadershipBids" container
// wins and publishes its name into "_currentLeader".
package election

import (
	"sync"

	"github.com/yahoo/clusterlib-go/coord"
	"github.com/yahoo/clusterlib-go/errs"
	"github.com/yahoo/clusterlib-go/repository"
)

const bidsDir = "_leadershipBids"
const currentLeaderNode = "_currentLeader"
const bidPrefix = "bid-"

// Engine runs leader election for however many groups this process
// participates in; one Engine is shared process-wide, mirroring
// lock.Engine's shape.
type Engine struct {
	repo *repository.Repository

	mu   sync.Mutex
	bids map[string]string // groupKey -> our bid path, if any
}

func NewEngine(repo *repository.Repository) *Engine {
	return &Engine{repo: repo, bids: make(map[string]string)}
}

func bidsContainer(groupKey string) string     { return groupKey + "/" + bidsDir }
func currentLeaderPath(groupKey string) string { return groupKey + "/" + currentLeaderNode }

// TryToBecomeLeader creates an ephemeral-sequential bid under groupKey's
// leadership bids container; if its suffix is the lowest extant, it
// atomically publishes selfName into "_currentLeader" and records the
// winning bid, returning true. Otherwise it returns false and withdraws
// nothing — the bid stays outstanding so this process is still in the
// running for the next vacancy.
func (e *Engine) TryToBecomeLeader(groupKey, selfName string) (bool, error) {
	container := bidsContainer(groupKey)
	if err := e.repo.EnsurePath(container, nil); err != nil {
		return false, err
	}

	bidPath, seq, err := e.repo.CreateSequence(container+"/"+bidPrefix, coord.EncodeBidData(selfName), true)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	e.bids[groupKey] = bidPath
	e.mu.Unlock()

	children, err := e.repo.GetChildren(container, nil)
	if err != nil {
		return false, err
	}

	lowest := seq
	for _, name := range children {
		_, n, err := repository.SplitSequenceNode(name)
		if err != nil {
			continue
		}
		if n < lowest {
			lowest = n
		}
	}

	if lowest != seq {
		return false, nil
	}

	if err := e.publishLeader(groupKey, selfName); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) publishLeader(groupKey, selfName string) error {
	path := currentLeaderPath(groupKey)

	exists, _, err := e.repo.Exists(path, nil)
	if err != nil {
		return err
	}
	if !exists {
		return e.repo.Create(path, []byte(selfName))
	}

	_, err = e.repo.SetData(path, []byte(selfName), -1)
	return err
}

// AmITheLeader reads the group's current leader and compares it to
// selfName.
func (e *Engine) AmITheLeader(groupKey, selfName string) (bool, error) {
	data, _, err := e.repo.GetData(currentLeaderPath(groupKey), nil)
	if err != nil {
		if errs.Is(err, errs.InvalidArguments) {
			return false, nil
		}
		return false, err
	}
	return string(data) == selfName, nil
}

// CurrentLeader returns the name most recently published to the group's
// "_currentLeader" znode, or "" if no election has produced a winner yet.
func (e *Engine) CurrentLeader(groupKey string) (string, error) {
	data, _, err := e.repo.GetData(currentLeaderPath(groupKey), nil)
	if err != nil {
		if errs.Is(err, errs.InvalidArguments) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// WatchLeader installs a watch on the group's current-leader znode;
// handler is invoked (and must re-arm by calling WatchLeader again) on
// every change, driving the cache's LEADERSHIP_CHANGE notification.
func (e *Engine) WatchLeader(groupKey string, handler repository.WatchHandler) error {
	_, _, err := e.repo.GetData(currentLeaderPath(groupKey), handler)
	return err
}

// GiveUpLeadership deletes this process's bid for groupKey. Session
// expiry releases it implicitly even without this call, at which point
// "_currentLeader" is left stale until the next election's winner
// republishes — the failure mode §4.5 documents.
func (e *Engine) GiveUpLeadership(groupKey string) error {
	e.mu.Lock()
	bidPath, ok := e.bids[groupKey]
	if ok {
		delete(e.bids, groupKey)
	}
	e.mu.Unlock()

	if !ok {
		return errs.InvalidMethodf("no outstanding leadership bid for %q", groupKey)
	}

	return e.repo.Delete(bidPath, -1)
}
