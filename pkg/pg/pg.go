package pg

import (
	"context"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type txContextKey string

const txKey txContextKey = "trx"

// DB splits reads and writes over two gorm handles. A transaction started by
// WithinTransaction travels in the context and wins over both.
type DB struct {
	read  *gorm.DB
	write *gorm.DB
}

func New(read, write *gorm.DB) *DB {
	return &DB{read: read, write: write}
}

func gormConfig(withDebug bool) *gorm.Config {
	c := &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if withDebug {
		c.Logger = logger.Default.LogMode(logger.Info)
	}
	return c
}

func Create(config Config, withDebug bool) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(config.DSN()), gormConfig(withDebug))
}

func CreateReadWrite(readConfig Config, writeConfig Config, withDebug bool) (*DB, error) {
	read, err := Create(readConfig, withDebug)
	if err != nil {
		return nil, err
	}
	write, err := Create(writeConfig, withDebug)
	if err != nil {
		return nil, err
	}
	return &DB{read, write}, nil
}

// CreateSqlite opens a single sqlite file for both reads and writes. Use
// ":memory:" in tests.
func CreateSqlite(path string, withDebug bool) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(withDebug))
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		// sqlite allows one writer; a shared :memory: db also needs one conn
		sqlDB.SetMaxOpenConns(1)
	}
	return &DB{db, db}, nil
}

func (r *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.write.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ctx = context.WithValue(ctx, txKey, tx)
		return fn(ctx)
	})
}

func (r *DB) Write(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return r.write.WithContext(ctx)
}

func (r *DB) Read(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return r.read.WithContext(ctx)
}

// Writer exposes the write handle for migrations.
func (r *DB) Writer() *gorm.DB {
	return r.write
}

func (r *DB) Close() error {
	closeOne := func(g *gorm.DB) error {
		sqlDB, err := g.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	err := closeOne(r.write)
	if r.read != r.write {
		if rerr := closeOne(r.read); err == nil {
			err = rerr
		}
	}
	return err
}
