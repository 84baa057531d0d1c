package cache_test

import (
	"io/ioutil"
	"os"

	"github.com/yahoo/clusterlib-go/cache"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	var (
		dir   string
		store *cache.Store
	)

	BeforeEach(func() {
		var err error
		dir, err = ioutil.TempDir("", "clusterlib-warmcache")
		Expect(err).NotTo(HaveOccurred())

		store, err = cache.Open(dir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		store.Close()
		os.RemoveAll(dir)
	})

	Describe("#Get", func() {
		Context("When nothing has been cached for the path", func() {
			It("Should report not found without an error", func() {
				_, found, err := store.Get("/clusterlib/_apps/foo")
				Expect(err).NotTo(HaveOccurred())
				Expect(found).To(BeFalse())
			})
		})

		Context("When a snapshot was previously written", func() {
			It("Should return the same body and version", func() {
				body := map[string]interface{}{"k": "v"}
				Expect(store.Put("/clusterlib/_apps/foo", body, 3, 1000)).To(Succeed())

				snap, found, err := store.Get("/clusterlib/_apps/foo")
				Expect(err).NotTo(HaveOccurred())
				Expect(found).To(BeTrue())
				Expect(snap.Version).To(Equal(int32(3)))
				Expect(snap.Body["k"]).To(Equal("v"))
			})
		})
	})

	Describe("#Delete", func() {
		It("Should remove a cached snapshot", func() {
			Expect(store.Put("/clusterlib/_apps/foo", nil, 0, 0)).To(Succeed())
			Expect(store.Delete("/clusterlib/_apps/foo")).To(Succeed())

			_, found, err := store.Get("/clusterlib/_apps/foo")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})

	Describe("Snapshot#Age", func() {
		It("Should compute elapsed time from the cached-at stamp", func() {
			snap := cache.Snapshot{CachedAt: 1000}
			Expect(snap.Age(4000).Milliseconds()).To(Equal(int64(3000)))
		})
	})
})
