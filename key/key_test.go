package key_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/yahoo/clusterlib-go/errs"
	"github.com/yahoo/clusterlib-go/key"
)

var _ = Describe("Kind", func() {
	It("renders a human-readable string for every well-known kind", func() {
		Expect(key.KindGroup.String()).To(Equal("group"))
		Expect(key.KindNode.String()).To(Equal("node"))
		Expect(key.Kind(99).String()).To(Equal("unknown"))
	})

	It("exposes a well-known container prefix for container kinds only", func() {
		Expect(key.KindGroup.Prefix()).To(Equal("_groups"))
		Expect(key.KindNode.Prefix()).To(Equal("_nodes"))
		Expect(key.KindRoot.Prefix()).To(Equal(""))
	})
})

var _ = Describe("Child", func() {
	It("joins parent, prefix and name into a path", func() {
		p, err := key.Child("/_clusterlib/v1.0/root/app1", key.KindGroup, "g15")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal("/_clusterlib/v1.0/root/app1/_groups/g15"))
	})

	It("rejects a kind with no well-known child prefix", func() {
		_, err := key.Child("/root", key.KindRoot, "x")
		Expect(errs.Is(err, errs.InvalidArguments)).To(BeTrue())
	})

	It("rejects an empty name", func() {
		_, err := key.Child("/root", key.KindGroup, "")
		Expect(errs.Is(err, errs.InvalidArguments)).To(BeTrue())
	})
})

var _ = Describe("ContainerOf", func() {
	It("returns the container directory path for a kind", func() {
		p, err := key.ContainerOf("/_clusterlib/v1.0/root/app1", key.KindGroup)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal("/_clusterlib/v1.0/root/app1/_groups"))
	})
})

var _ = Describe("RootPath", func() {
	It("builds the fixed-prefix root path for a cluster root name", func() {
		Expect(key.RootPath("root")).To(Equal("/_clusterlib/v1.0/root"))
	})
})

var _ = Describe("Name", func() {
	It("returns the final path segment", func() {
		Expect(key.Name("/a/b/c")).To(Equal("c"))
	})

	It("returns the whole string when there is no slash", func() {
		Expect(key.Name("solo")).To(Equal("solo"))
	})
})

var _ = Describe("Parent", func() {
	It("strips the final segment", func() {
		Expect(key.Parent("/a/b/c")).To(Equal("/a/b"))
	})

	It("returns root for a single segment path", func() {
		Expect(key.Parent("/a")).To(Equal("/"))
	})
})

var _ = Describe("RemoveObjectFromKey", func() {
	It("ascends two segments to get from a child object to its owner", func() {
		Expect(key.RemoveObjectFromKey("/a/b/_propertyLists/pl1")).To(Equal("/a/b"))
	})
})
