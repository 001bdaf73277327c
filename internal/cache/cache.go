package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs-labo46/ec-backoffice/internal/metrics"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// 読み取りのメモ化と無効化の窓口。ストアの障害はミス扱いにして握りつぶす。
type Cache struct {
	store  Store
	group  singleflight.Group
	logger *log.Entry

	//無効化のたびに進める。計算中に進んだら結果を保存しない
	mu  sync.RWMutex
	gen uint64
}

func New(store Store, logger *log.Entry) *Cache {
	if logger == nil {
		logger = log.WithField("component", "cache")
	}
	return &Cache{store: store, logger: logger}
}

// 何もしないキャッシュ（テストやキャッシュ無効時）
func NewNop() *Cache {
	return New(nopStore{}, nil)
}

func (c *Cache) SupportsTags() bool {
	_, ok := c.store.(TagStore)
	return ok
}

// Remember はキャッシュがあれば返し、なければfnの結果を保存して返す。
// 同じキーの同時ミスは1回のfnにまとめる。fnのエラーは保存しない。
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, tags []string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	resource := resourceOf(key)

	if raw, ok := c.get(ctx, key, resource); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			metrics.CacheRequests.WithLabelValues(resource, "hit").Inc()
			return v, nil
		}
		c.logger.WithField("key", key).Warn("discarding undecodable cache entry")
	}
	metrics.CacheRequests.WithLabelValues(resource, "miss").Inc()

	raw, err, _ := c.group.Do(key, func() (any, error) {
		gen := c.generation()
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		c.putIfCurrent(ctx, gen, key, b, ttl, tags)
		return b, nil
	})
	if err != nil {
		return zero, err
	}

	var v T
	if err := json.Unmarshal(raw.([]byte), &v); err != nil {
		return zero, err
	}
	return v, nil
}

// 指定キーを消す。存在しなくてもよい。
func (c *Cache) Forget(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	c.bump()
	for _, k := range keys {
		c.group.Forget(k)
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.logger.WithError(err).WithField("keys", keys).Warn("cache delete failed")
		return
	}
	metrics.CacheInvalidations.WithLabelValues("key").Add(float64(len(keys)))
}

// タグをまとめて消す。タグ非対応ならfallbackKeysを個別に消す
// （想定外のキーはTTLまで残る）。
func (c *Cache) FlushTag(ctx context.Context, tag string, fallbackKeys ...string) {
	c.bump()
	if ts, ok := c.store.(TagStore); ok {
		err := ts.FlushTag(ctx, tag)
		if err == nil {
			metrics.CacheInvalidations.WithLabelValues("tag").Inc()
			return
		}
		c.logger.WithError(err).WithField("tag", tag).Warn("cache tag flush failed, falling back to keys")
	}
	if len(fallbackKeys) == 0 {
		return
	}
	if err := c.store.Delete(ctx, fallbackKeys...); err != nil {
		c.logger.WithError(err).WithField("tag", tag).Warn("cache fallback delete failed")
		return
	}
	metrics.CacheInvalidations.WithLabelValues("fallback").Add(float64(len(fallbackKeys)))
}

func (c *Cache) get(ctx context.Context, key, resource string) ([]byte, bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		metrics.CacheRequests.WithLabelValues(resource, "error").Inc()
		c.logger.WithError(err).WithField("key", key).Warn("cache read failed, treating as miss")
		return nil, false
	}
	return raw, ok
}

func (c *Cache) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

func (c *Cache) bump() {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()
}

// 読み取り中に無効化が走っていたら古い値なので捨てる。
// 保存はロック中に行うので、後から来た無効化が必ずそれを消す。
func (c *Cache) putIfCurrent(ctx context.Context, gen uint64, key string, value []byte, ttl time.Duration, tags []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.gen != gen {
		c.logger.WithField("key", key).Debug("skip caching value computed across an invalidation")
		return
	}
	c.put(ctx, key, value, ttl, tags)
}

func (c *Cache) put(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string) {
	var err error
	if ts, ok := c.store.(TagStore); ok && len(tags) > 0 {
		err = ts.SetTagged(ctx, key, value, ttl, tags)
	} else {
		err = c.store.Set(ctx, key, value, ttl)
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

// "product:1" -> "product"
func resourceOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

type nopStore struct{}

func (nopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (nopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (nopStore) Delete(context.Context, ...string) error { return nil }
