package election_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/yahoo/clusterlib-go/election"
	"github.com/yahoo/clusterlib-go/errs"
)

var _ = Describe("Engine#GiveUpLeadership", func() {
	It("rejects giving up leadership for a group with no outstanding bid", func() {
		e := election.NewEngine(nil)
		err := e.GiveUpLeadership("/a/b/_groups/g1")
		Expect(errs.Is(err, errs.InvalidMethod)).To(BeTrue())
	})
})
