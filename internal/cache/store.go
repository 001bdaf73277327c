// Package cache memoizes read queries and provides the invalidation
// primitives used after writes.
package cache

import (
	"context"
	"time"
)

// キーと値を保存するだけの最小の約束
type Store interface {
	// ok=false はミス（期限切れも含む）
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// 存在しないキーはエラーにしない
	Delete(ctx context.Context, keys ...string) error
}

// タグでまとめて消せるストア
type TagStore interface {
	Store
	SetTagged(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string) error
	FlushTag(ctx context.Context, tag string) error
}
