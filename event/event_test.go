package event_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/yahoo/clusterlib-go/event"
)

var _ = Describe("Kind", func() {
	It("renders a human-readable string for every outcome", func() {
		Expect(event.KindCreated.String()).To(Equal("CREATED"))
		Expect(event.KindDataChanged.String()).To(Equal("DATA_CHANGED"))
		Expect(event.Kind(99).String()).To(Equal("NONE"))
	})
})

var _ = Describe("Bridge", func() {
	var bridge *event.Bridge

	BeforeEach(func() {
		bridge = event.NewBridge()
	})

	It("delivers to a handler registered for the fired key only", func() {
		var got []event.UserEventPayload
		h := event.UserEventHandlerFunc(func(p event.UserEventPayload) { got = append(got, p) })

		bridge.AddUserEventHandler("/a", h)
		bridge.Fire("/a", event.KindDataChanged)
		bridge.Fire("/b", event.KindDataChanged)

		Expect(got).To(HaveLen(1))
		Expect(got[0].Key).To(Equal("/a"))
		Expect(got[0].Event).To(Equal(event.KindDataChanged))
	})

	It("stops delivering after the handler is removed", func() {
		calls := 0
		h := event.UserEventHandlerFunc(func(event.UserEventPayload) { calls++ })

		bridge.AddUserEventHandler("/a", h)
		bridge.Fire("/a", event.KindCreated)
		bridge.RemoveUserEventHandler("/a", h)
		bridge.Fire("/a", event.KindCreated)

		Expect(calls).To(Equal(1))
	})

	It("delivers every fired event to a global handler regardless of key", func() {
		var keys []string
		h := event.UserEventHandlerFunc(func(p event.UserEventPayload) { keys = append(keys, p.Key) })

		bridge.AddGlobalUserEventHandler(h)
		bridge.Fire("/a", event.KindCreated)
		bridge.Fire("/b", event.KindDeleted)

		Expect(keys).To(Equal([]string{"/a", "/b"}))
	})

	It("stops delivering to a removed global handler", func() {
		calls := 0
		h := event.UserEventHandlerFunc(func(event.UserEventPayload) { calls++ })

		bridge.AddGlobalUserEventHandler(h)
		bridge.RemoveGlobalUserEventHandler(h)
		bridge.Fire("/a", event.KindCreated)

		Expect(calls).To(Equal(0))
	})

	It("delivers to both per-key and global handlers for the same firing", func() {
		perKeyCalls, globalCalls := 0, 0
		bridge.AddUserEventHandler("/a", event.UserEventHandlerFunc(func(event.UserEventPayload) { perKeyCalls++ }))
		bridge.AddGlobalUserEventHandler(event.UserEventHandlerFunc(func(event.UserEventPayload) { globalCalls++ }))

		bridge.Fire("/a", event.KindCreated)

		Expect(perKeyCalls).To(Equal(1))
		Expect(globalCalls).To(Equal(1))
	})
})
