package coord_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/yahoo/clusterlib-go/coord"
)

var _ = Describe("RandomUint64", func() {
	It("returns a distinct value on every call", func() {
		Expect(coord.RandomUint64()).NotTo(Equal(coord.RandomUint64()))
	})
})

var _ = Describe("bid data encoding", func() {
	It("recovers the owner identity through an encode/decode round trip", func() {
		encoded := coord.EncodeBidData("host-1:42:7")
		Expect(coord.DecodeBidData(encoded)).To(Equal("host-1:42:7"))
	})

	It("embeds a distinct nonce per call so identical owners still differ", func() {
		Expect(coord.EncodeBidData("same-owner")).NotTo(Equal(coord.EncodeBidData("same-owner")))
	})

	It("returns data unchanged when it carries no embedded nonce", func() {
		Expect(coord.DecodeBidData([]byte("legacy-owner"))).To(Equal("legacy-owner"))
	})
})
