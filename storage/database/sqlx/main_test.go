package sqlxrepos

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edupoints/core"
	"github.com/trezcool/edupoints/storage/database"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conf := core.NewTestConfig()
	conf.Storage.Driver = "sqlite"
	conf.Storage.DSN = ":memory:"

	db, err := database.Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}
