package integration

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/wiki-index-sync/internal/app"
	"github.com/stacklok/wiki-index-sync/internal/config"
	"github.com/stacklok/wiki-index-sync/internal/index/sqlite"
	"github.com/stacklok/wiki-index-sync/internal/reference"
	"github.com/stacklok/wiki-index-sync/internal/store"
	"github.com/stacklok/wiki-index-sync/internal/store/postgres"
	"github.com/stacklok/wiki-index-sync/internal/sync/job"
)

func document(raw, version, content string) store.Document {
	key, err := reference.ParseKey(raw)
	Expect(err).NotTo(HaveOccurred())
	return store.Document{Key: key, Version: version, Title: key.Name, Content: content}
}

func scope(raw string) reference.Scope {
	s, err := reference.ParseScope(raw)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func request(root string) job.Request {
	req := job.DefaultRequest()
	req.Root = scope(root)
	return req
}

var _ = Describe("Synchronization", Ordered, func() {
	var (
		st    *postgres.Store
		index *sqlite.Index
		j     *job.Job
	)

	initial := []store.Document{
		document("xwiki:Main.WebHome", "1.1", "welcome home"),
		document("xwiki:Main.WebHome;fr", "1.1", "bienvenue"),
		document("xwiki:Main.Sandbox", "3.2", "sandbox playground"),
		document("xwiki:Main.Sub.Page", "1.1", "nested page"),
		document("xwiki:Blog.Post", "2.1", "release announcement"),
		document("archive:Old.Page", "1.1", "archived"),
	}

	BeforeEach(func() {
		resetStore()

		var err error
		st, err = postgres.New(pool)
		Expect(err).NotTo(HaveOccurred())

		index, err = sqlite.Open(ctx, filepath.Join(GinkgoT().TempDir(), "index.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(index.Close)

		cfg := &config.Config{Index: config.IndexConfig{PageSize: 2}, Store: config.StoreConfig{PageSize: 2}}
		j, err = app.NewJob("e2e", cfg, st, index, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(st.SaveDocuments(ctx, initial)).To(Succeed())
	})

	It("indexes every store document on the first run", func() {
		result, err := j.Run(ctx, job.DefaultRequest())
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Added).To(Equal(int64(len(initial))))
		Expect(result.Updated + result.Deleted + result.Failed).To(BeZero())

		Expect(index.CountEntries(ctx, reference.Scope{})).To(Equal(int64(len(initial))))

		keys, err := index.Search(ctx, "playground", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(HaveLen(1))
		Expect(keys[0].String()).To(Equal("xwiki:Main.Sandbox"))
	})

	It("applies additions, updates and deletions and then converges", func() {
		_, err := j.Run(ctx, job.DefaultRequest())
		Expect(err).NotTo(HaveOccurred())

		By("mutating the store")
		Expect(st.SaveDocument(ctx, document("xwiki:Main.Sandbox", "3.3", "sandbox rewritten"))).To(Succeed())
		Expect(st.SaveDocument(ctx, document("xwiki:Main.New", "1.1", "brand new"))).To(Succeed())
		Expect(st.DeleteDocument(ctx, document("xwiki:Blog.Post", "", ""))).To(Succeed())

		result, err := j.Run(ctx, job.DefaultRequest())
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Summary()).To(Equal("added=1 updated=1 deleted=1 skipped=4 failed=0"))

		version, err := index.Version(ctx, reference.MustKey("xwiki", []string{"Main"}, "Sandbox", ""))
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal("3.3"))

		By("running again without changes")
		result, err = j.Run(ctx, job.DefaultRequest())
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Skipped).To(Equal(int64(6)))
		Expect(result.Added + result.Updated + result.Deleted).To(BeZero())
	})

	It("limits the comparison to the root scope", func() {
		result, err := j.Run(ctx, request("xwiki:Main"))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Added).To(Equal(int64(4)))

		Expect(index.CountEntries(ctx, scope("xwiki:Blog"))).To(BeZero())
		Expect(index.CountEntries(ctx, scope("archive"))).To(BeZero())

		By("leaving entries outside the root alone")
		Expect(st.DeleteDocument(ctx, document("xwiki:Main.WebHome;fr", "", ""))).To(Succeed())
		result, err = j.Run(ctx, request("xwiki:Main/WebHome"))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Deleted).To(Equal(int64(1)))
		Expect(result.Skipped).To(Equal(int64(1)))
		Expect(index.CountEntries(ctx, reference.Scope{})).To(Equal(int64(3)))
	})

	It("keeps the index untouched on a dry run", func() {
		req := job.DefaultRequest()
		req.DryRun = true
		result, err := j.Run(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Added).To(Equal(int64(len(initial))))
		Expect(index.CountEntries(ctx, reference.Scope{})).To(BeZero())
	})

	It("keeps missing documents when removeMissing is off", func() {
		_, err := j.Run(ctx, job.DefaultRequest())
		Expect(err).NotTo(HaveOccurred())
		Expect(st.DeleteDocument(ctx, document("archive:Old.Page", "", ""))).To(Succeed())

		req := job.DefaultRequest()
		req.RemoveMissing = false
		result, err := j.Run(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Deleted).To(Equal(int64(1)), "deletions are still counted")
		Expect(index.CountEntries(ctx, scope("archive"))).To(Equal(int64(1)))
	})

	It("reindexes everything in overwrite mode", func() {
		_, err := j.Run(ctx, job.DefaultRequest())
		Expect(err).NotTo(HaveOccurred())

		req := job.DefaultRequest()
		req.Overwrite = true
		result, err := j.Run(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Added).To(Equal(int64(len(initial))))
		Expect(result.Skipped).To(BeZero())
		Expect(index.CountEntries(ctx, reference.Scope{})).To(Equal(int64(len(initial))))
	})
})
