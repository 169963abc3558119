// Package cache holds the console's entity caches. A cache mirrors one scope
// of server state at a time and is only ever replaced wholesale.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/nimasrn/campaign-console/pkg/logger"
	"github.com/nimasrn/campaign-console/pkg/prom"
)

// Scope identifies what a cache load was for, e.g. "campaign=42" or
// "status=RUNNING". The zero value is the unscoped list.
type Scope string

// Snapshot is an immutable view of a cache. When Err is set Items is empty:
// a failed load is shown as the error, never next to older rows.
type Snapshot[T any] struct {
	Name     string    `json:"cache"`
	Scope    Scope     `json:"scope"`
	Items    []T       `json:"items"`
	Err      error     `json:"-"`
	Loaded   bool      `json:"loaded"`
	LoadedAt time.Time `json:"loaded_at"`
	Seq      uint64    `json:"seq"`
}

func (s Snapshot[T]) ErrText() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Ticket is handed out when a load is dispatched and presented again when it
// completes.
type Ticket struct {
	Scope Scope
	Seq   uint64
}

type Cache[T any] struct {
	name string

	mu     sync.RWMutex
	target Scope
	seq    uint64
	latest map[Scope]uint64
	snap   Snapshot[T]
	now    func() time.Time
}

func New[T any](name string) *Cache[T] {
	return &Cache[T]{
		name:   name,
		latest: make(map[Scope]uint64),
		snap:   Snapshot[T]{Name: name},
		now:    time.Now,
	}
}

func (c *Cache[T]) Name() string {
	return c.name
}

// Target returns the scope the cache currently shows.
func (c *Cache[T]) Target() Scope {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.target
}

// Retarget switches the cache to scope. Rows of a different scope are
// dropped immediately so they can never be shown under the new scope.
func (c *Cache[T]) Retarget(scope Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retargetLocked(scope)
}

func (c *Cache[T]) retargetLocked(scope Scope) {
	if c.target == scope {
		return
	}
	c.target = scope
	c.snap = Snapshot[T]{Name: c.name, Scope: scope}
	// only the target can commit
	for sc := range c.latest {
		if sc != scope {
			delete(c.latest, sc)
		}
	}
}

// Begin retargets the cache to scope and issues a ticket that supersedes all
// earlier tickets for the same scope.
func (c *Cache[T]) Begin(scope Scope) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retargetLocked(scope)
	c.seq++
	c.latest[scope] = c.seq
	return Ticket{Scope: scope, Seq: c.seq}
}

// Commit replaces the rows with items if t is still current. It reports
// whether the result was applied.
func (c *Cache[T]) Commit(t Ticket, items []T) bool {
	return c.complete(t, items, nil)
}

// Fail replaces the rows with err if t is still current.
func (c *Cache[T]) Fail(t Ticket, err error) bool {
	return c.complete(t, nil, err)
}

func (c *Cache[T]) complete(t Ticket, items []T, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.latest[t.Scope] != t.Seq || c.target != t.Scope {
		prom.IncCacheStaleLoad(c.name)
		logger.Debug("discarding stale cache load", "cache", c.name, "scope", string(t.Scope), "seq", t.Seq, "target", string(c.target))
		return false
	}

	if items == nil {
		items = []T{}
	}
	c.snap = Snapshot[T]{
		Name:     c.name,
		Scope:    t.Scope,
		Items:    items,
		Err:      err,
		Loaded:   true,
		LoadedAt: c.now(),
		Seq:      t.Seq,
	}
	if err != nil {
		c.snap.Items = []T{}
		prom.IncCacheLoad(c.name, "failed")
	} else {
		prom.IncCacheLoad(c.name, "ok")
	}
	return true
}

func (c *Cache[T]) Snapshot() Snapshot[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Find returns the first cached row matching pred.
func (c *Cache[T]) Find(pred func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.snap.Items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Load runs fetch for scope and stores its outcome. The returned snapshot is
// the cache after completion, which may belong to a newer load when this one
// was superseded.
func Load[T any](ctx context.Context, c *Cache[T], scope Scope, fetch func(ctx context.Context) ([]T, error)) (Snapshot[T], error) {
	ticket := c.Begin(scope)
	items, err := fetch(ctx)
	if err != nil {
		c.Fail(ticket, err)
		return c.Snapshot(), err
	}
	c.Commit(ticket, items)
	return c.Snapshot(), nil
}
