package repository

import (
	"strings"

	"github.com/yahoo/clusterlib-go/errs"
)

// EndEventPath and SyncEventPath are synthetic, in-band control paths the
// adapter uses to drive worker shutdown and the synchronize() ordering
// barrier. The repository never has real znodes at these paths.
const (
	EndEventPath  = "__END_EVENT__"
	SyncEventPath = "__SYNC__"
)

// ValidatePath enforces the path shape the repository contract requires:
// absolute, no trailing slash (unless it is the root), no empty segments.
func ValidatePath(path string) error {
	if len(path) == 0 || path[0] != '/' {
		return errs.InvalidArgumentsf("path %q must begin with '/'", path)
	}

	if path != "/" && strings.HasSuffix(path, "/") {
		return errs.InvalidArgumentsf("path %q must not end with '/'", path)
	}

	if strings.Contains(path, "//") {
		return errs.InvalidArgumentsf("path %q must not contain '//'", path)
	}

	return nil
}

// SequenceNumberWidth is the fixed width of the decimal suffix the store
// appends to an ephemeral-sequential node's name.
const SequenceNumberWidth = 10

// SplitSequenceNode separates the fixed-width decimal sequence suffix the
// store appended to a sequential node's name from the caller-supplied
// prefix, returning the prefix and the parsed sequence number.
func SplitSequenceNode(sequenceNode string) (string, int64, error) {
	if len(sequenceNode) < SequenceNumberWidth {
		return "", 0, errs.InconsistentInternalStatef(
			"sequence node %q is too small to split", sequenceNode)
	}

	split := len(sequenceNode) - SequenceNumberWidth
	name := sequenceNode[:split]
	suffix := sequenceNode[split:]

	var n int64
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return "", 0, errs.InconsistentInternalStatef(
				"sequence node %q does not end in a valid sequence number, got %q", sequenceNode, suffix)
		}
		n = n*10 + int64(c-'0')
	}

	return name, n, nil
}
