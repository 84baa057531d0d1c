package lock

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/yahoo/clusterlib-go/metrics"
)

var _ = Describe("Mode", func() {
	It("renders a human-readable string", func() {
		Expect(Exclusive.String()).To(Equal("EXCLUSIVE"))
		Expect(Shared.String()).To(Equal("SHARED"))
	})

	It("uses EX-/SH- bid prefixes so siblings can be told apart by listing alone", func() {
		Expect(Exclusive.prefix()).To(Equal("EX-"))
		Expect(Shared.prefix()).To(Equal("SH-"))
	})
})

var _ = Describe("Identity", func() {
	It("renders a non-empty identity string", func() {
		Expect(Identity()).NotTo(BeEmpty())
	})
})

var _ = Describe("evaluate's bid sort", func() {
	It("orders bids ascending by sequence number regardless of input order", func() {
		bids := []bid{
			{name: "EX-3", seq: 3, mode: Exclusive},
			{name: "SH-1", seq: 1, mode: Shared},
			{name: "EX-2", seq: 2, mode: Exclusive},
		}

		sortBidsBySeq(bids)

		Expect(bids[0].seq).To(Equal(int64(1)))
		Expect(bids[1].seq).To(Equal(int64(2)))
		Expect(bids[2].seq).To(Equal(int64(3)))
	})
})

var _ = Describe("registryKey", func() {
	It("combines notifyable key and lock name into a single map key", func() {
		Expect(registryKey("/a", "lockA")).NotTo(Equal(registryKey("/a", "lockB")))
	})
})

var _ = Describe("Engine#UseMetrics", func() {
	It("accepts a metrics registry without requiring a connected repository", func() {
		e := NewEngine(nil)
		e.UseMetrics(metrics.New())
		Expect(e.metrics).NotTo(BeNil())
	})
})
