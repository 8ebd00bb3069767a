package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// Cache stores computed views for a fixed time. Concurrent writers of the
// same key race benignly: the last write wins.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

// DefaultMaxEntries bounds a Memory cache unless WithMaxEntries says otherwise.
const DefaultMaxEntries = 1024

type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

// Memory is an in-process LRU Cache with per-entry expiry. Expired entries
// are dropped when read, and the least recently used entry is evicted once
// the cache holds more than its maximum.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	lru        *list.List
	maxEntries int
	now        func() time.Time
}

// NewMemory creates an empty in-process cache holding up to DefaultMaxEntries.
func NewMemory() *Memory {
	return &Memory{
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// WithMaxEntries sets the entry bound. Non-positive values are ignored.
func (m *Memory) WithMaxEntries(n int) *Memory {
	if n > 0 {
		m.maxEntries = n
	}
	return m
}

// Get returns the live value stored under key.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*entry)
	if !m.now().Before(e.expiresAt) {
		m.remove(elem)
		return nil, false
	}
	m.lru.MoveToFront(elem)
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl is a no-op.
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt := m.now().Add(ttl)
	if elem, ok := m.entries[key]; ok {
		e := elem.Value.(*entry)
		e.value, e.expiresAt = value, expiresAt
		m.lru.MoveToFront(elem)
		return
	}
	m.entries[key] = m.lru.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
	if m.lru.Len() > m.maxEntries {
		m.remove(m.lru.Back())
	}
}

// Purge drops expired entries and returns how many were removed.
func (m *Memory) Purge() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for _, elem := range m.entries {
		if !now.Before(elem.Value.(*entry).expiresAt) {
			m.remove(elem)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, including expired ones not yet
// read or purged.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

func (m *Memory) remove(elem *list.Element) {
	m.lru.Remove(elem)
	delete(m.entries, elem.Value.(*entry).key)
}

// Recorder receives cache lookup outcomes per view.
type Recorder interface {
	CacheHit(view string)
	CacheMiss(view string)
}

// Instrumented reports hits and misses of the wrapped cache.
type Instrumented struct {
	next     Cache
	recorder Recorder
}

// NewInstrumented wraps next so every Get is reported to recorder.
func NewInstrumented(next Cache, recorder Recorder) *Instrumented {
	return &Instrumented{next: next, recorder: recorder}
}

// Get looks key up in the wrapped cache and records a hit or a miss.
func (c *Instrumented) Get(key string) (any, bool) {
	v, ok := c.next.Get(key)
	if ok {
		c.recorder.CacheHit(ViewOf(key))
	} else {
		c.recorder.CacheMiss(ViewOf(key))
	}
	return v, ok
}

// Set stores value in the wrapped cache.
func (c *Instrumented) Set(key string, value any, ttl time.Duration) {
	c.next.Set(key, value, ttl)
}

// ViewOf returns the view prefix of a cache key.
func ViewOf(key string) string {
	view, _, _ := strings.Cut(key, ":")
	return view
}

// Load returns the cached value of type T under key, or computes, stores and
// returns it. A failed computation is not cached.
func Load[T any](c Cache, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, v, ttl)
	return v, nil
}
