// Package pollcache is an optional read-through cache in front of
// Store.GetTaskStatus, grounded on nova's internal/cache/redis.go. Only
// FINISHED rows are cached: invariant I4 (spec §3) makes them
// immutable, so a FINISHED entry never goes stale; a RUNNING row is
// never cached since it would.
package pollcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sermir2003/stoilo/internal/domain"
)

// Cache wraps a Redis client as the Gateway's PollTask read-through
// cache.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Config holds the connection settings for Cache.
type Config struct {
	Addr     string
	Password string
	DB       int
	// TTL bounds the cache entry lifetime even though FINISHED rows are
	// immutable, so a long-forgotten key eventually falls out rather
	// than growing the keyspace unbounded.
	TTL time.Duration
}

const defaultTTL = 24 * time.Hour

// New constructs a Cache. It does not ping the server: a Gateway with
// the cache temporarily unreachable should still serve PollTask
// straight from Store rather than fail startup.
func New(cfg Config) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: "stoilo:task:",
		ttl:    ttl,
	}
}

type cachedTask struct {
	TaskID            string `json:"task_id"`
	Flavor            string `json:"flavor"`
	TaskStatus        int32  `json:"task_status"`
	ResultStatus      int32  `json:"result_status"`
	ResultStatusValid bool   `json:"result_status_valid"`
	Returned          []byte `json:"returned"`
	ErrorMessage      string `json:"error_message"`
}

// Get returns the cached task, or nil on a cache miss. Redis
// errors are swallowed as misses: the cache is an optimization, not a
// dependency the Gateway can go down over.
func (c *Cache) Get(ctx context.Context, taskID string) *domain.Task {
	if c == nil {
		return nil
	}
	data, err := c.client.Get(ctx, c.prefix+taskID).Bytes()
	if err != nil {
		return nil
	}
	var ct cachedTask
	if err := json.Unmarshal(data, &ct); err != nil {
		return nil
	}
	return &domain.Task{
		TaskID:            ct.TaskID,
		Flavor:            ct.Flavor,
		TaskStatus:        domain.TaskStatus(ct.TaskStatus),
		ResultStatus:      domain.ResultStatus(ct.ResultStatus),
		ResultStatusValid: ct.ResultStatusValid,
		Returned:          ct.Returned,
		ErrorMessage:      ct.ErrorMessage,
	}
}

// Set stores t, but only if it is FINISHED (invariant I4 makes it safe
// to cache indefinitely); a RUNNING task is a no-op so a stale entry is
// never written for a row that can still change.
func (c *Cache) Set(ctx context.Context, t *domain.Task) {
	if c == nil || t.TaskStatus != domain.TaskStatusFinished {
		return
	}
	data, err := json.Marshal(cachedTask{
		TaskID:            t.TaskID,
		Flavor:            t.Flavor,
		TaskStatus:        int32(t.TaskStatus),
		ResultStatus:      int32(t.ResultStatus),
		ResultStatusValid: t.ResultStatusValid,
		Returned:          t.Returned,
		ErrorMessage:      t.ErrorMessage,
	})
	if err != nil {
		return
	}
	c.client.Set(ctx, c.prefix+t.TaskID, data, c.ttl)
}

// Close releases the underlying Redis client.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
