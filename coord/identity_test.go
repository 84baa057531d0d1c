package coord_test

import (
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/yahoo/clusterlib-go/coord"
)

var _ = Describe("ProcessIdentity", func() {
	It("returns a stable hostname:pid:tag triple across calls", func() {
		Expect(coord.ProcessIdentity()).To(Equal(coord.ProcessIdentity()))
		Expect(strings.Count(coord.ProcessIdentity(), ":")).To(Equal(2))
	})
})

var _ = Describe("NewRequestID", func() {
	It("returns a distinct id on every call", func() {
		a := coord.NewRequestID()
		b := coord.NewRequestID()
		Expect(a).NotTo(Equal(b))
		Expect(a).To(HavePrefix(coord.ProcessIdentity()))
	})
})
