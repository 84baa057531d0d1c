package repository_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/yahoo/clusterlib-go/errs"
	"github.com/yahoo/clusterlib-go/repository"
)

var _ = Describe("ValidatePath", func() {
	It("accepts the root path", func() {
		Expect(repository.ValidatePath("/")).To(Succeed())
	})

	It("accepts a well-formed absolute path", func() {
		Expect(repository.ValidatePath("/a/b/c")).To(Succeed())
	})

	It("rejects a relative path", func() {
		err := repository.ValidatePath("a/b")
		Expect(errs.Is(err, errs.InvalidArguments)).To(BeTrue())
	})

	It("rejects a trailing slash on a non-root path", func() {
		err := repository.ValidatePath("/a/b/")
		Expect(errs.Is(err, errs.InvalidArguments)).To(BeTrue())
	})

	It("rejects an empty path segment", func() {
		err := repository.ValidatePath("/a//b")
		Expect(errs.Is(err, errs.InvalidArguments)).To(BeTrue())
	})
})

var _ = Describe("SplitSequenceNode", func() {
	It("splits the fixed-width sequence suffix from the prefix", func() {
		name, n, err := repository.SplitSequenceNode("EX-0000000042")
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("EX-"))
		Expect(n).To(Equal(int64(42)))
	})

	It("rejects a node name shorter than the fixed suffix width", func() {
		_, _, err := repository.SplitSequenceNode("123")
		Expect(err).To(HaveOccurred())
	})

	It("rejects a suffix containing non-digit characters", func() {
		_, _, err := repository.SplitSequenceNode("EX-abcdefghij")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("State", func() {
	It("renders a human-readable string for every state", func() {
		Expect(repository.Connected.String()).To(Equal("CONNECTED"))
		Expect(repository.SessionExpired.String()).To(Equal("SESSION_EXPIRED"))
		Expect(repository.State(99).String()).To(Equal("UNKNOWN"))
	})
})
