package repository

import (
	"testing"

	"github.com/nimasrn/campaign-console/pkg/pg"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *pg.DB {
	t.Helper()
	db, err := pg.CreateSqlite(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, Migrate(db, pg.DialectSqlite))
	t.Cleanup(func() { _ = db.Close() })
	return db
}
