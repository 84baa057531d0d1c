package notifyable

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/yahoo/clusterlib-go/errs"
	"github.com/yahoo/clusterlib-go/key"
)

var _ = Describe("State", func() {
	It("renders a human-readable string for every lifecycle state", func() {
		Expect(StateInit.String()).To(Equal("INIT"))
		Expect(StateReady.String()).To(Equal("READY"))
		Expect(StateRemoved.String()).To(Equal("REMOVED"))
		Expect(State(99).String()).To(Equal("UNKNOWN"))
	})
})

var _ = Describe("Notifyable lifecycle", func() {
	var n *Notifyable

	BeforeEach(func() {
		n = newNotifyable(key.KindNode, "/a/_nodes/n1")
	})

	It("starts in INIT", func() {
		Expect(n.State()).To(Equal(StateInit))
	})

	It("transitions to READY only on the literal ready sentinel", func() {
		n.observeReady([]byte("not-ready-yet"))
		Expect(n.State()).To(Equal(StateInit))

		n.observeReady([]byte("ready"))
		Expect(n.State()).To(Equal(StateReady))
	})

	It("stays READY across a stale, non-sentinel revalidation", func() {
		n.observeReady([]byte("ready"))
		n.observeReady([]byte(""))
		Expect(n.State()).To(Equal(StateReady))
	})

	It("never re-enters READY once REMOVED", func() {
		n.setState(StateRemoved)
		n.observeReady([]byte("ready"))
		Expect(n.State()).To(Equal(StateRemoved))
	})

	It("rejects operations on a removed instance via requireLive", func() {
		Expect(n.requireLive()).To(Succeed())
		n.setState(StateRemoved)
		err := n.requireLive()
		Expect(errs.Is(err, errs.ObjectRemoved)).To(BeTrue())
	})

	It("reports refcount reaching zero so the factory knows to evict", func() {
		n.addRef()
		n.addRef()
		Expect(n.releaseRef()).To(BeFalse())
		Expect(n.releaseRef()).To(BeTrue())
	})

	It("tracks the parent/group/application chain pointers", func() {
		parent := newNotifyable(key.KindGroup, "/a/_groups/g1")
		n.setParent(parent)
		Expect(n.Parent()).To(BeIdenticalTo(parent))
	})
})

var _ = Describe("Notifyable known-leader state", func() {
	It("is shared across every wrapper built on the same underlying instance", func() {
		n := newNotifyable(key.KindGroup, "/a/_groups/g1")

		first := newGroup(n)
		Expect(first.KnownLeader()).To(Equal(""))

		n.setKnownLeader("host-1")

		second := newGroup(n)
		Expect(second.KnownLeader()).To(Equal("host-1"))
		Expect(first.KnownLeader()).To(Equal("host-1"))
	})
})
