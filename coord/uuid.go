package coord

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// RandomUint64 returns a cryptographically random 64-bit value. Lock and
// leadership election bids embed one in their ephemeral node's data so that
// two bids which happen to race to the same sequence number (impossible in
// a correct store, but a defense against a misbehaving one) can still be
// told apart deterministically.
func RandomUint64() uint64 {
	randomBytes := make([]byte, 8)
	rand.Read(randomBytes)

	return binary.BigEndian.Uint64(randomBytes[:8])
}

// EncodeBidData appends a random nonce to owner for embedding in a lock
// or leadership bid's ephemeral-sequential node data. DecodeBidData
// recovers owner from the result.
func EncodeBidData(owner string) []byte {
	return []byte(fmt.Sprintf("%s\x00%016x", owner, RandomUint64()))
}

// DecodeBidData recovers the owner identity embedded by EncodeBidData.
// Data with no embedded nonce is returned unchanged.
func DecodeBidData(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return string(data[:i])
	}
	return string(data)
}
