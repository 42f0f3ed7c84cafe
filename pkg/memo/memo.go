// Package memo caches the results of pure single-argument functions.
//
// The default cache grows for the life of the wrapper and never evicts. That is
// the right trade for small, bounded vocabularies such as table and column
// names. LRU is available for inputs that are not bounded.
package memo

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Memoizer wraps a function with an unbounded input to output cache.
// fn runs at most once per distinct input for the lifetime of the Memoizer.
type Memoizer[K comparable, V any] struct {
	mu    sync.Mutex
	fn    func(K) V
	cache map[K]V
}

// New creates a Memoizer around fn.
func New[K comparable, V any](fn func(K) V) *Memoizer[K, V] {
	return &Memoizer[K, V]{
		fn:    fn,
		cache: make(map[K]V),
	}
}

// Get returns the cached result for key, computing it on first use.
func (m *Memoizer[K, V]) Get(key K) V {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.cache[key]; ok {
		return v
	}
	v := m.fn(key)
	m.cache[key] = v
	return v
}

// Len reports how many distinct inputs have been cached.
func (m *Memoizer[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache)
}

// Func returns fn wrapped in a fresh unbounded cache.
func Func[K comparable, V any](fn func(K) V) func(K) V {
	return New(fn).Get
}

// LRU wraps a function with a bounded least-recently-used cache.
// Once an input is evicted, fn runs again the next time it is seen.
type LRU[K comparable, V any] struct {
	mu    sync.Mutex
	fn    func(K) V
	cache *lru.Cache[K, V]
}

// NewLRU creates an LRU memoizer holding at most size results.
func NewLRU[K comparable, V any](fn func(K) V, size int) (*LRU[K, V], error) {
	cache, err := lru.New[K, V](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &LRU[K, V]{fn: fn, cache: cache}, nil
}

// Get returns the cached result for key, computing it when absent.
func (m *LRU[K, V]) Get(key K) V {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.cache.Get(key); ok {
		return v
	}
	v := m.fn(key)
	m.cache.Add(key, v)
	return v
}

// Len reports how many results are currently cached.
func (m *LRU[K, V]) Len() int {
	return m.cache.Len()
}

// Bounded returns fn wrapped in an LRU cache of the given size.
// A size of zero or less falls back to the unbounded cache.
func Bounded[K comparable, V any](fn func(K) V, size int) (func(K) V, error) {
	if size <= 0 {
		return Func(fn), nil
	}
	m, err := NewLRU(fn, size)
	if err != nil {
		return nil, err
	}
	return m.Get, nil
}
