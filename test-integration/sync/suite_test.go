package integration

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/wiki-index-sync/database"
)

var (
	ctx  context.Context
	pool *pgxpool.Pool
)

func TestSyncIntegration(t *testing.T) {
	// Skips the suite when no container runtime is available.
	pool, _ = database.SetupTestDB(t)

	RegisterFailHandler(Fail)
	RunSpecs(t, "Index Sync Integration Suite")
}

var _ = BeforeSuite(func() {
	ctx = context.Background()
	Expect(pool.Ping(ctx)).To(Succeed())
})

// resetStore removes every document and wiki
func resetStore() {
	_, err := pool.Exec(ctx, "TRUNCATE documents, wikis")
	Expect(err).NotTo(HaveOccurred())
}
