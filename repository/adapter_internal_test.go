package repository

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/go-zookeeper/zk"

	"github.com/yahoo/clusterlib-go/errs"
)

var _ = Describe("translateZKError", func() {
	It("passes nil through unchanged", func() {
		Expect(translateZKError(nil)).To(BeNil())
	})

	It("maps ErrNoNode and ErrNodeExists and ErrNotEmpty to InvalidArguments", func() {
		Expect(errs.Is(translateZKError(zk.ErrNoNode), errs.InvalidArguments)).To(BeTrue())
		Expect(errs.Is(translateZKError(zk.ErrNodeExists), errs.InvalidArguments)).To(BeTrue())
		Expect(errs.Is(translateZKError(zk.ErrNotEmpty), errs.InvalidArguments)).To(BeTrue())
	})

	It("maps ErrBadVersion to BadVersion", func() {
		Expect(errs.Is(translateZKError(zk.ErrBadVersion), errs.BadVersion)).To(BeTrue())
	})

	It("maps ErrNoAuth to NoAuth", func() {
		Expect(errs.Is(translateZKError(zk.ErrNoAuth), errs.NoAuth)).To(BeTrue())
	})

	It("maps session/connection loss and deadline exceeded to NotConnected", func() {
		Expect(errs.Is(translateZKError(zk.ErrConnectionClosed), errs.NotConnected)).To(BeTrue())
		Expect(errs.Is(translateZKError(zk.ErrSessionExpired), errs.NotConnected)).To(BeTrue())
		Expect(errs.Is(translateZKError(context.DeadlineExceeded), errs.NotConnected)).To(BeTrue())
	})

	It("falls back to an unknown-code error for anything else", func() {
		err := translateZKError(zk.ErrUnknown)
		Expect(err).To(HaveOccurred())
		Expect(errs.Is(err, errs.InvalidArguments)).To(BeFalse())
	})
})

var _ = Describe("isRetryable", func() {
	It("is true only for NotConnected errors", func() {
		Expect(isRetryable(errs.NotConnectedf("lost"))).To(BeTrue())
		Expect(isRetryable(errs.InvalidArgumentsf("bad"))).To(BeFalse())
	})
})
