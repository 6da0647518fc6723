// Package cache implements the expiring read-through cache: an in-process
// map with lazy expiry, optionally fronted by a remote key-value store. The
// remote tier is an optimization only; any failure there falls through to
// the in-process tier.
package cache

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "shotstats_cache_requests_total",
	Help: "Cache lookups by tier and result",
}, []string{"tier", "result"})

// ErrMiss is returned by a RemoteStore when the key is absent.
var ErrMiss = errors.New("cache miss")

// RemoteStore is an external key-value backend holding serialized values.
type RemoteStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type entry struct {
	data    []byte
	expires time.Time
}

// Cache stores JSON-encoded values so every reader decodes its own copy.
// Entries are independent; there is no cross-entry locking.
type Cache struct {
	remote RemoteStore
	local  sync.Map // string -> *entry
	now    func() time.Time
	logger *zap.SugaredLogger
}

// New creates a cache. remote may be nil.
func New(remote RemoteStore, logger *zap.SugaredLogger) *Cache {
	return &Cache{
		remote: remote,
		now:    time.Now,
		logger: logger,
	}
}

// Get decodes the cached value for key into dest and reports whether it was
// found. Expired in-process entries are evicted on access.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c.remote != nil {
		data, err := c.remote.Get(ctx, key)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, dest); err != nil {
				c.logger.Warnw("Remote cache decode failed", "key", key, "error", err)
				break
			}
			cacheRequests.WithLabelValues("remote", "hit").Inc()
			return true
		case errors.Is(err, ErrMiss):
			cacheRequests.WithLabelValues("remote", "miss").Inc()
		default:
			cacheRequests.WithLabelValues("remote", "error").Inc()
			c.logger.Warnw("Remote cache get failed", "key", key, "error", err)
		}
	}

	v, ok := c.local.Load(key)
	if !ok {
		cacheRequests.WithLabelValues("local", "miss").Inc()
		return false
	}
	e := v.(*entry)
	if !c.now().Before(e.expires) {
		c.local.CompareAndDelete(key, e)
		cacheRequests.WithLabelValues("local", "expired").Inc()
		return false
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		c.logger.Warnw("Cache decode failed", "key", key, "error", err)
		c.local.CompareAndDelete(key, e)
		return false
	}
	cacheRequests.WithLabelValues("local", "hit").Inc()
	return true
}

// Set stores value under key for ttl. Non-positive TTLs are ignored.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warnw("Cache encode failed", "key", key, "error", err)
		return
	}

	if c.remote != nil {
		err := c.remote.Set(ctx, key, data, ttl)
		if err == nil {
			return
		}
		c.logger.Warnw("Remote cache set failed", "key", key, "error", err)
	}

	c.local.Store(key, &entry{data: data, expires: c.now().Add(ttl)})
}

// Key joins an operation name and its normalized parameters.
func Key(op string, parts ...string) string {
	return strings.Join(append([]string{op}, parts...), "|")
}

// YearsKey normalizes a season filter: sorted, de-duplicated and
// comma-joined, or "all" when empty.
func YearsKey(years []int) string {
	if len(years) == 0 {
		return "all"
	}
	sorted := append([]int(nil), years...)
	sort.Ints(sorted)
	parts := make([]string, 0, len(sorted))
	for i, y := range sorted {
		if i > 0 && y == sorted[i-1] {
			continue
		}
		parts = append(parts, strconv.Itoa(y))
	}
	return strings.Join(parts, ",")
}

// SearchKey normalizes a search term.
func SearchKey(search string) string {
	return strings.ToLower(strings.TrimSpace(search))
}
