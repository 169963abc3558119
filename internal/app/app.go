// Package app wires the console from configuration.
package app

import (
	"context"

	"github.com/nimasrn/campaign-console/internal/config"
	"github.com/nimasrn/campaign-console/internal/gateway"
	"github.com/nimasrn/campaign-console/internal/repository"
	"github.com/nimasrn/campaign-console/internal/services"
	"github.com/nimasrn/campaign-console/internal/session"
	"github.com/nimasrn/campaign-console/pkg/logger"
	"github.com/nimasrn/campaign-console/pkg/pg"
	"github.com/nimasrn/campaign-console/pkg/redis"
	"github.com/pkg/errors"
)

// App holds the long lived dependencies of a console process.
type App struct {
	Client  *gateway.Client
	Console *services.ConsoleService
	Journal *services.JournalService

	db    *pg.DB
	redis redis.RedisAdapter
}

func GatewayConfig(c *config.Config) *gateway.Config {
	return &gateway.Config{
		BaseURL:         c.GatewayBaseURL,
		Token:           c.GatewayToken,
		APIKey:          c.GatewayAPIKey,
		Timeout:         c.GatewayTimeout,
		MaxConns:        c.GatewayMaxConns,
		ReadBufferSize:  c.GatewayReadBufferSize,
		WriteBufferSize: c.GatewayWriteBufferSize,
	}
}

// OpenJournalDB opens the journal database selected by JOURNAL_DRIVER and
// returns it together with its goose dialect.
func OpenJournalDB(c *config.Config) (*pg.DB, string, error) {
	debug := c.AppEnv == "dev" && c.AppDebug
	if c.JournalDriver == "postgres" {
		readConf := pg.Config{
			User:     c.PostgresReadUser,
			Host:     c.PostgresReadHost,
			Port:     c.PostgresReadPort,
			Password: c.PostgresReadPassword,
			Database: c.PostgresReadDatabase,
		}
		writeConf := pg.Config{
			User:     c.PostgresWriteUser,
			Host:     c.PostgresWriteHost,
			Port:     c.PostgresWritePort,
			Password: c.PostgresWritePassword,
			Database: c.PostgresWriteDatabase,
		}
		if readConf.Host == "" {
			readConf = writeConf
		}
		db, err := pg.CreateReadWrite(readConf, writeConf, debug)
		return db, pg.DialectPostgres, err
	}
	db, err := pg.CreateSqlite(c.JournalSqlitePath, debug)
	return db, pg.DialectSqlite, err
}

// New builds the console. Redis is optional: without REDIS_ADDR the session
// lives in memory and actions are not de-duplicated across processes.
func New(ctx context.Context, c *config.Config) (*App, error) {
	a := &App{}

	client, err := gateway.NewClient(GatewayConfig(c))
	if err != nil {
		return nil, errors.Wrap(err, "failed creating campaign api client")
	}
	a.Client = client

	db, dialect, err := OpenJournalDB(c)
	if err != nil {
		a.Close()
		return nil, errors.Wrap(err, "failed opening journal database")
	}
	a.db = db
	if err = repository.Migrate(db, dialect); err != nil {
		a.Close()
		return nil, errors.Wrap(err, "failed migrating journal database")
	}
	a.Journal = services.NewJournalService(repository.NewActionRecordRepository(db), c.JournalBuffer, c.JournalWorkers)
	a.Journal.Start(ctx)

	var store session.Store = session.NewMemoryStore()
	var guard services.ActionGuard
	if c.RedisAddr != "" {
		a.redis, err = redis.NewRedisAdapter("default", c.RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{c.RedisAddr},
			ClientName: c.AppName,
			DB:         c.RedisDatabase,
			Username:   c.RedisUsername,
			Password:   c.RedisPassword,
		})
		if err != nil {
			a.Close()
			return nil, errors.Wrap(err, "failed connecting to redis")
		}
		store = session.NewRedisStore(a.redis, c.SessionTTL)
		guardConf := services.DefaultActionGuardConfig()
		guardConf.LockTTL = c.ActionLockTTL
		guard = services.NewRedisActionGuard(a.redis, guardConf)
	} else {
		logger.Info("redis not configured, session kept in memory")
	}

	a.Console = services.NewConsoleService(client, store, services.ConsoleConfig{
		SessionID: c.SessionID,
		Journal:   a.Journal,
		Guard:     guard,
	})
	if err = a.Console.Open(ctx); err != nil {
		a.Close()
		return nil, errors.Wrap(err, "failed restoring session")
	}
	return a, nil
}

// Close flushes the journal before closing the stores it writes to.
func (a *App) Close() {
	if a.Journal != nil {
		a.Journal.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Warn("failed closing journal database", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warn("failed closing redis", "error", err)
		}
	}
	if a.Client != nil {
		_ = a.Client.Close()
	}
}
