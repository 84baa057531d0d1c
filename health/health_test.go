package health_test

import (
	"errors"

	"github.com/yahoo/clusterlib-go/config"
	"github.com/yahoo/clusterlib-go/errs"
	"github.com/yahoo/clusterlib-go/health"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Status", func() {
	Describe("#String", func() {
		It("Should render Healthy as \"healthy\"", func() {
			Expect(health.Healthy.String()).To(Equal("healthy"))
		})

		It("Should render Unhealthy as \"unhealthy\"", func() {
			Expect(health.Unhealthy.String()).To(Equal("unhealthy"))
		})
	})
})

var _ = Describe("CheckerFunc", func() {
	It("Should delegate CheckHealth to the wrapped function", func() {
		calls := 0
		checker := health.CheckerFunc(func() (health.Status, string, error) {
			calls++
			return health.Healthy, "ok", nil
		})

		status, desc, err := checker.CheckHealth()
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(health.Healthy))
		Expect(desc).To(Equal("ok"))
		Expect(calls).To(Equal(1))
	})

	It("Should propagate an error from the wrapped function", func() {
		wantErr := errors.New("boom")
		checker := health.CheckerFunc(func() (health.Status, string, error) {
			return health.Healthy, "", wantErr
		})

		_, _, err := checker.CheckHealth()
		Expect(err).To(Equal(wantErr))
	})
})

var _ = Describe("Engine", func() {
	Describe("#RegisterHealthChecker", func() {
		Context("When the cadence configuration is not positive", func() {
			It("Should reject a zero healthy cadence with InvalidArgumentsException", func() {
				engine := health.NewEngine(nil, config.HealthCheckConfig{
					MsecsPerCheckIfHealthy:   0,
					MsecsPerCheckIfUnhealthy: 1000,
				})

				err := engine.RegisterHealthChecker(nil, health.CheckerFunc(func() (health.Status, string, error) {
					return health.Healthy, "", nil
				}))

				Expect(errs.Is(err, errs.InvalidArguments)).To(BeTrue())
			})

			It("Should reject a zero unhealthy cadence with InvalidArgumentsException", func() {
				engine := health.NewEngine(nil, config.HealthCheckConfig{
					MsecsPerCheckIfHealthy:   1000,
					MsecsPerCheckIfUnhealthy: 0,
				})

				err := engine.RegisterHealthChecker(nil, health.CheckerFunc(func() (health.Status, string, error) {
					return health.Healthy, "", nil
				}))

				Expect(errs.Is(err, errs.InvalidArguments)).To(BeTrue())
			})
		})
	})

	Describe("#UnregisterHealthChecker", func() {
		Context("When no checker was ever registered for the node", func() {
			It("Should return InvalidMethodException", func() {
				engine := health.NewEngine(nil, config.HealthCheckConfig{
					MsecsPerCheckIfHealthy:   1000,
					MsecsPerCheckIfUnhealthy: 1000,
				})

				err := engine.UnregisterHealthChecker("/clusterlib/_apps/foo/_groups/bar/_nodes/baz")
				Expect(errs.Is(err, errs.InvalidMethod)).To(BeTrue())
			})
		})
	})
})
