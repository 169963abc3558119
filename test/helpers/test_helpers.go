package helpers

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/nimasrn/campaign-console/internal/gateway"
	"github.com/nimasrn/campaign-console/internal/mockapi"
	"github.com/nimasrn/campaign-console/internal/repository"
	"github.com/nimasrn/campaign-console/pkg/pg"
	"github.com/nimasrn/campaign-console/pkg/redis"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// SetupTestDB opens a migrated in-memory journal database.
func SetupTestDB(t *testing.T) *pg.DB {
	db, err := pg.CreateSqlite(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db, pg.DialectSqlite))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// adapters are cached per connection name
	connName := fmt.Sprintf("test-%d", time.Now().UnixNano())
	adapter, err := redis.NewRedisAdapter(connName, "console:", &redis.Options{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = adapter.Close()
		mr.Close()
	})
	return mr, adapter
}

// StartMockAPI serves an empty in-memory campaign API.
func StartMockAPI(t *testing.T, config mockapi.Config) (*httptest.Server, *mockapi.Store) {
	gin.SetMode(gin.TestMode)
	config.Logger = zerolog.Nop()
	store := mockapi.NewStore()
	srv := httptest.NewServer(mockapi.SetupRouter(mockapi.NewHandler(store, config)))
	t.Cleanup(srv.Close)
	return srv, store
}

func NewTestClient(t *testing.T, baseURL, token string) *gateway.Client {
	client, err := gateway.NewClient(&gateway.Config{
		BaseURL: baseURL,
		Token:   token,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}
