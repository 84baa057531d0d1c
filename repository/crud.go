package repository

import (
	"strings"

	"github.com/go-zookeeper/zk"

	"github.com/yahoo/clusterlib-go/errs"
)

// Create makes a single znode at path with the given data. acl defaults to
// world-readable/creator-writable, mirroring the store's OPEN_ACL_UNSAFE.
func (r *Repository) Create(path string, data []byte) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if err := r.requireConnected(); err != nil {
		return err
	}

	return r.withRetry(func() error {
		_, err := r.conn.Create(path, data, 0, zk.WorldACL(zk.PermAll))
		return err
	})
}

// CreateEphemeral makes a znode that the store removes automatically when
// this session ends — the building block for lock bids, leadership bids,
// and the health engine's connectivity indicator.
func (r *Repository) CreateEphemeral(path string, data []byte) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if err := r.requireConnected(); err != nil {
		return err
	}

	return r.withRetry(func() error {
		_, err := r.conn.Create(path, data, zk.FlagEphemeral, zk.WorldACL(zk.PermAll))
		return err
	})
}

// CreateSequence makes an ephemeral-sequential (or persistent-sequential,
// when ephemeral is false) znode whose final path is pathPrefix suffixed
// with a monotonically increasing, fixed-width decimal sequence number.
// It returns the path the store actually assigned and the parsed sequence
// number, matching the original client's createSequence(..., createdPath)
// out-parameter shape.
func (r *Repository) CreateSequence(pathPrefix string, data []byte, ephemeral bool) (string, int64, error) {
	if err := ValidatePath(pathPrefix); err != nil {
		return "", 0, err
	}
	if err := r.requireConnected(); err != nil {
		return "", 0, err
	}

	var flags int32 = zk.FlagSequence
	if ephemeral {
		flags |= zk.FlagEphemeral
	}

	var createdPath string
	err := r.withRetry(func() error {
		p, err := r.conn.Create(pathPrefix, data, flags, zk.WorldACL(zk.PermAll))
		if err != nil {
			return err
		}
		createdPath = p
		return nil
	})
	if err != nil {
		return "", 0, err
	}

	_, seq, err := SplitSequenceNode(createdPath)
	if err != nil {
		return "", 0, err
	}
	return createdPath, seq, nil
}

// Delete removes a single znode. version<0 skips the store's optimistic
// version check.
func (r *Repository) Delete(path string, version int32) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if err := r.requireConnected(); err != nil {
		return err
	}

	return r.withRetry(func() error {
		return r.conn.Delete(path, version)
	})
}

// DeleteRecursive removes path and every descendant, and stops as soon
// as a no-node error means the subtree is already gone rather than
// treating that as a failure — deletes racing with another client's
// cleanup of the same subtree are expected, not exceptional.
func (r *Repository) DeleteRecursive(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	children, err := r.GetChildren(path, nil)
	if err != nil {
		if errs.Is(err, errs.InvalidArguments) {
			return nil
		}
		return err
	}

	for _, child := range children {
		if err := r.DeleteRecursive(joinPath(path, child)); err != nil {
			return err
		}
	}

	err = r.Delete(path, -1)
	if errs.Is(err, errs.InvalidArguments) {
		return nil
	}
	return err
}

func joinPath(parent, child string) string {
	if parent == "/" {
		return "/" + child
	}
	return parent + "/" + child
}

// Exists reports whether path currently exists, optionally arming a
// one-shot watch that fires reg.handler the next time the node is
// created, deleted, or its data changes.
func (r *Repository) Exists(path string, handler WatchHandler) (bool, *Stat, error) {
	if err := ValidatePath(path); err != nil {
		return false, nil, err
	}
	if err := r.requireConnected(); err != nil {
		return false, nil, err
	}

	if handler == nil {
		var exists bool
		var stat *zk.Stat
		err := r.withRetry(func() error {
			e, s, err := r.conn.Exists(path)
			exists, stat = e, s
			return err
		})
		if err != nil {
			return false, nil, translateZKError(err)
		}
		return exists, toStat(stat), nil
	}

	var exists bool
	var stat *zk.Stat
	var ch <-chan zk.Event
	err := r.withRetry(func() error {
		e, s, c, err := r.conn.ExistsW(path)
		exists, stat, ch = e, s, c
		return err
	})
	if err != nil {
		return false, nil, translateZKError(err)
	}

	r.watchChannel(ch, &watchRegistration{handler: handler})
	return exists, toStat(stat), nil
}

// GetData fetches a znode's data, optionally arming a one-shot data watch.
func (r *Repository) GetData(path string, handler WatchHandler) ([]byte, *Stat, error) {
	if err := ValidatePath(path); err != nil {
		return nil, nil, err
	}
	if err := r.requireConnected(); err != nil {
		return nil, nil, err
	}

	if handler == nil {
		var data []byte
		var stat *zk.Stat
		err := r.withRetry(func() error {
			d, s, err := r.conn.Get(path)
			data, stat = d, s
			return err
		})
		if err != nil {
			return nil, nil, translateZKError(err)
		}
		return data, toStat(stat), nil
	}

	var data []byte
	var stat *zk.Stat
	var ch <-chan zk.Event
	err := r.withRetry(func() error {
		d, s, c, err := r.conn.GetW(path)
		data, stat, ch = d, s, c
		return err
	})
	if err != nil {
		return nil, nil, translateZKError(err)
	}

	r.watchChannel(ch, &watchRegistration{handler: handler})
	return data, toStat(stat), nil
}

// SetData writes a znode's data conditioned on version (version<0 skips
// the check) and returns the stat the store produced for the write.
func (r *Repository) SetData(path string, data []byte, version int32) (*Stat, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	if err := r.requireConnected(); err != nil {
		return nil, err
	}

	var stat *zk.Stat
	err := r.withRetry(func() error {
		s, err := r.conn.Set(path, data, version)
		stat = s
		return err
	})
	if err != nil {
		return nil, err
	}
	return toStat(stat), nil
}

// GetChildren lists path's immediate children, optionally arming a
// one-shot child watch.
func (r *Repository) GetChildren(path string, handler WatchHandler) ([]string, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	if err := r.requireConnected(); err != nil {
		return nil, err
	}

	if handler == nil {
		var children []string
		err := r.withRetry(func() error {
			c, _, err := r.conn.Children(path)
			children = c
			return err
		})
		if err != nil {
			return nil, translateZKError(err)
		}
		return children, nil
	}

	var children []string
	var ch <-chan zk.Event
	err := r.withRetry(func() error {
		c, _, w, err := r.conn.ChildrenW(path)
		children, ch = c, w
		return err
	})
	if err != nil {
		return nil, translateZKError(err)
	}

	r.watchChannel(ch, &watchRegistration{handler: handler})
	return children, nil
}

// Sync blocks until every write this session has issued so far has been
// flushed to the store's quorum. It injects no event into the watch
// pipeline; SyncAndBarrier adds the synthetic sync event — see §4.1's
// ordering barrier.
func (r *Repository) Sync(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if err := r.requireConnected(); err != nil {
		return err
	}

	return r.withRetry(func() error {
		_, err := r.conn.Sync(path)
		return err
	})
}

// SyncAndBarrier issues a repository sync on path and then enqueues the
// synthetic sync event carrying handler onto the raw-event channel, per
// §4.1: since the store's sync does not itself set a watch, the adapter
// injects this sentinel so that every watch firing produced before this
// call is guaranteed to have drained the user-event queue before handler
// runs — the ordering contract synchronize() is built on.
func (r *Repository) SyncAndBarrier(path string, handler WatchHandler) error {
	if err := r.Sync(path); err != nil {
		return err
	}

	r.rawEventCh <- syncEvent(&watchRegistration{handler: handler})
	return nil
}

func toStat(s *zk.Stat) *Stat {
	if s == nil {
		return nil
	}
	return &Stat{Version: s.Version, Ctime: s.Ctime, Mtime: s.Mtime}
}

// EnsurePath creates every missing ancestor of path as a plain persistent
// znode with empty data, then path itself, matching the original client's
// createAncestors convenience flag.
func (r *Repository) EnsurePath(path string, leafData []byte) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	current := ""
	for i, seg := range segments {
		current += "/" + seg
		data := []byte{}
		if i == len(segments)-1 {
			data = leafData
		}

		err := r.Create(current, data)
		if err != nil && !errs.Is(err, errs.InvalidArguments) {
			return err
		}
	}
	return nil
}
