package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// LRU上のインメモリストア。タグに対応する。
type MemoryStore struct {
	lru *expirable.LRU[string, memoryEntry]

	mu      sync.Mutex
	tagKeys map[string]map[string]struct{}
	keyTags map[string][]string

	now func() time.Time
}

var _ TagStore = (*MemoryStore)(nil)

// size件を超えると古いものから捨てる。maxTTLはエントリごとのTTLの上限。
func NewMemoryStore(size int, maxTTL time.Duration) *MemoryStore {
	s := &MemoryStore{
		tagKeys: map[string]map[string]struct{}{},
		keyTags: map[string][]string{},
		now:     time.Now,
	}
	s.lru = expirable.NewLRU[string, memoryEntry](size, s.onEvict, maxTTL)
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.lru.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.SetTagged(ctx, key, value, ttl, nil)
}

func (s *MemoryStore) SetTagged(_ context.Context, key string, value []byte, ttl time.Duration, tags []string) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	// LRUのロック中にonEvictが呼ばれるので、s.muを持ったままLRUを触らない
	s.lru.Add(key, e)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.untagLocked(key)
	if len(tags) == 0 {
		return nil
	}
	s.keyTags[key] = append([]string(nil), tags...)
	for _, t := range tags {
		keys, ok := s.tagKeys[t]
		if !ok {
			keys = map[string]struct{}{}
			s.tagKeys[t] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.lru.Remove(k)
	}
	return nil
}

func (s *MemoryStore) FlushTag(_ context.Context, tag string) error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.tagKeys[tag]))
	for k := range s.tagKeys[tag] {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	for _, k := range keys {
		s.lru.Remove(k)
	}

	s.mu.Lock()
	delete(s.tagKeys, tag)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Len() int {
	return s.lru.Len()
}

func (s *MemoryStore) onEvict(key string, _ memoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untagLocked(key)
}

func (s *MemoryStore) untagLocked(key string) {
	for _, t := range s.keyTags[key] {
		if keys, ok := s.tagKeys[t]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(s.tagKeys, t)
			}
		}
	}
	delete(s.keyTags, key)
}
