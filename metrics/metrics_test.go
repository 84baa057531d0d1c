package metrics_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yahoo/clusterlib-go/metrics"
)

var _ = Describe("Registry", func() {
	var reg *metrics.Registry

	BeforeEach(func() {
		reg = metrics.New()
	})

	It("registers every metric so Registerer can be scraped without panicking", func() {
		Expect(reg.Registerer()).NotTo(BeNil())
		families, err := reg.Registerer().Gather()
		Expect(err).NotTo(HaveOccurred())
		Expect(families).To(BeEmpty())
		for _, c := range []prometheus.Collector{reg.ConnectionState, reg.LockWaitSeconds, reg.RPCRoundTrip, reg.HealthState} {
			Expect(reg.Registerer().Register(c)).To(BeAssignableToTypeOf(prometheus.AlreadyRegisteredError{}))
		}
	})

	It("records connection state transitions as a gauge keyed by hosts", func() {
		reg.ObserveConnectionState("zk1:2181", false, true)
		Expect(testutil.ToFloat64(reg.ConnectionState.WithLabelValues("zk1:2181"))).To(Equal(1.0))

		reg.ObserveConnectionState("zk1:2181", true, false)
		Expect(testutil.ToFloat64(reg.ConnectionState.WithLabelValues("zk1:2181"))).To(Equal(2.0))

		reg.ObserveConnectionState("zk1:2181", false, false)
		Expect(testutil.ToFloat64(reg.ConnectionState.WithLabelValues("zk1:2181"))).To(Equal(0.0))
	})

	It("records health state as 1/0 keyed by node", func() {
		reg.ObserveHealthState("/node1", true)
		Expect(testutil.ToFloat64(reg.HealthState.WithLabelValues("/node1"))).To(Equal(1.0))

		reg.ObserveHealthState("/node1", false)
		Expect(testutil.ToFloat64(reg.HealthState.WithLabelValues("/node1"))).To(Equal(0.0))
	})
})
