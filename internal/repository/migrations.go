package repository

import (
	"embed"

	"github.com/nimasrn/campaign-console/pkg/pg"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the journal schema up to date on db.
func Migrate(db *pg.DB, dialect string) error {
	sqlDB, err := db.Writer().DB()
	if err != nil {
		return err
	}
	return pg.Migrate(sqlDB, dialect, migrations, "migrations")
}
