package coord_test

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/yahoo/clusterlib-go/coord"
)

var _ = Describe("SignalMap", func() {
	It("wakes a waiter when the key is signaled", func() {
		m := coord.NewSignalMap()
		gen := m.AddRefPredMutexCond("/a")
		defer m.RemoveRefPredMutexCond("/a")

		done := make(chan bool, 1)
		go func() {
			done <- m.WaitUsecsPredMutexCond("/a", -1, gen)
		}()

		time.Sleep(20 * time.Millisecond)
		m.SignalPredMutexCond("/a")

		Eventually(done).Should(Receive(BeTrue()))
	})

	It("times out if nobody signals within the deadline", func() {
		m := coord.NewSignalMap()
		gen := m.AddRefPredMutexCond("/a")
		defer m.RemoveRefPredMutexCond("/a")

		woke := m.WaitUsecsPredMutexCond("/a", 10*1000, gen)
		Expect(woke).To(BeFalse())
	})

	It("returns false immediately for a key nobody registered interest in", func() {
		Expect(coord.NewSignalMap().WaitUsecsPredMutexCond("/never-added", 1000, 0)).To(BeFalse())
	})

	It("is a no-op to signal a key with no registered waiters", func() {
		m := coord.NewSignalMap()
		Expect(func() { m.SignalPredMutexCond("/nobody-home") }).NotTo(Panic())
	})

	It("does not lose a signal that lands between AddRef and Wait", func() {
		m := coord.NewSignalMap()
		gen := m.AddRefPredMutexCond("/a")
		defer m.RemoveRefPredMutexCond("/a")

		// Simulates the watch firing (and the entry's channel being
		// swapped out) before the waiter ever calls Wait.
		m.SignalPredMutexCond("/a")

		woke := m.WaitUsecsPredMutexCond("/a", 10*1000, gen)
		Expect(woke).To(BeTrue())
	})
})
