package pg

import (
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/lib/pq"
	"github.com/nimasrn/campaign-console/pkg/logger"
	"github.com/pressly/goose/v3"
)

const (
	DialectPostgres = "postgres"
	DialectSqlite   = "sqlite3"
)

// Migrate applies the goose migrations found in dir of fsys.
func Migrate(db *sql.DB, dialect string, fsys fs.FS, dir string) error {
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect %s: %w", dialect, err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	version, err := goose.GetDBVersion(db)
	if err == nil {
		logger.Info("migrations applied", "dialect", dialect, "version", version)
	}
	return nil
}

// OpenPostgres opens a plain database/sql handle for tooling such as the
// migrate command.
func OpenPostgres(config Config) (*sql.DB, error) {
	return sql.Open("postgres", config.DSN())
}
