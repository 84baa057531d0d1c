// Package key implements the bidirectional mapping between a notifyable's
// logical identity and its repository path (C2), grounded on the
// teacher's storage/prefix.go key-prefixing scheme generalized from a
// flat keyspace to clusterlib's kind-tagged tree.
package key

import (
	"strings"

	"github.com/yahoo/clusterlib-go/errs"
)

// Kind identifies which notifyable variant a path segment belongs to.
type Kind int

const (
	KindRoot Kind = iota
	KindApplication
	KindGroup
	KindNode
	KindProcessSlot
	KindDataDistribution
	KindPropertyList
	KindQueue
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindApplication:
		return "application"
	case KindGroup:
		return "group"
	case KindNode:
		return "node"
	case KindProcessSlot:
		return "processSlot"
	case KindDataDistribution:
		return "dataDistribution"
	case KindPropertyList:
		return "propertyList"
	case KindQueue:
		return "queue"
	default:
		return "unknown"
	}
}

// Prefix is the well-known repository child directory a kind's instances
// live under, e.g. an Application's Groups live under "_groups".
func (k Kind) Prefix() string {
	switch k {
	case KindGroup:
		return "_groups"
	case KindNode:
		return "_nodes"
	case KindDataDistribution:
		return "_distributions"
	case KindPropertyList:
		return "_propertyLists"
	case KindProcessSlot:
		return "_processSlots"
	case KindQueue:
		return "_queues"
	default:
		return ""
	}
}

// ClusterlibRoot and Version are the two fixed leading segments every
// clusterlib path carries, per §6's "all paths under
// /<clusterlib>/<version>/<root>".
const (
	ClusterlibRoot = "/_clusterlib"
	Version        = "v1.0"
)

// Child builds the path of a child of the given kind named name living
// under parent, e.g. Child("/_clusterlib/v1.0/root/app1", KindGroup,
// "g15") => "/_clusterlib/v1.0/root/app1/_groups/g15".
func Child(parent string, kind Kind, name string) (string, error) {
	prefix := kind.Prefix()
	if prefix == "" {
		return "", errs.InvalidArgumentsf("kind %s has no well-known child prefix", kind)
	}
	if name == "" {
		return "", errs.InvalidArgumentsf("child name must not be empty")
	}

	return joinSegments(parent, prefix, name), nil
}

// ContainerOf returns the path of the well-known container directory that
// holds every instance of kind directly under parent, e.g. "_groups" under
// an application. Used to install the container-level children watch
// C3 arms on first access (getGroupNames, getNodeNames, ...).
func ContainerOf(parent string, kind Kind) (string, error) {
	prefix := kind.Prefix()
	if prefix == "" {
		return "", errs.InvalidArgumentsf("kind %s has no well-known child prefix", kind)
	}

	return joinSegments(parent, prefix), nil
}

func joinSegments(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(s)
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// RootPath is the path of the root notifyable for a given cluster/root
// name, e.g. RootPath("root") => "/_clusterlib/v1.0/root".
func RootPath(rootName string) string {
	return joinSegments(ClusterlibRoot, Version, rootName)
}

// Name returns the final path segment — the notifyable's human name —
// stripped of any well-known kind prefix directory.
func Name(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// Parent returns path with its final segment removed, or "/" if path is
// already a single segment.
func Parent(path string) string {
	idx := strings.LastIndex(strings.TrimSuffix(path, "/"), "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

// RemoveObjectFromKey drops the trailing component of path, used to
// ascend one notifyable level — e.g. from a group's property list path to
// the group's own path — when searching an ancestor chain for a
// same-named property list (CachedKeyValues' searchParent traversal).
// This traversal assumes a fixed two-segment child-of-parent layout
// (<prefix>/<name> under the owner); it is brittle against a future
// schema change that nests property lists more deeply, carried over
// unchanged from the source design.
func RemoveObjectFromKey(path string) string {
	return Parent(Parent(path))
}
