package coord_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/yahoo/clusterlib-go/coord"
)

var _ = Describe("Timer", func() {
	var t *coord.Timer

	BeforeEach(func() {
		t = coord.NewTimer()
	})

	AfterEach(func() {
		t.Stop()
	})

	It("fires a listener once an alarm comes due", func() {
		var mu sync.Mutex
		var fired interface{}

		t.OnAlarm(func(id coord.TimerID, payload interface{}) {
			mu.Lock()
			fired = payload
			mu.Unlock()
		})

		t.ScheduleAfter(10*time.Millisecond, "hello")

		Eventually(func() interface{} {
			mu.Lock()
			defer mu.Unlock()
			return fired
		}, time.Second).Should(Equal("hello"))
	})

	It("never fires a cancelled alarm", func() {
		var mu sync.Mutex
		fired := false

		t.OnAlarm(func(id coord.TimerID, payload interface{}) {
			mu.Lock()
			fired = true
			mu.Unlock()
		})

		id := t.ScheduleAfter(50*time.Millisecond, "x")
		Expect(t.CancelAlarm(id)).To(BeTrue())

		time.Sleep(150 * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		Expect(fired).To(BeFalse())
	})

	It("reports false when cancelling an alarm that already fired or never existed", func() {
		Expect(t.CancelAlarm(coord.TimerID(99999))).To(BeFalse())
	})
})
