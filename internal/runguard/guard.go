// ABOUTME: Thread-safe TTL guard admitting one in-flight bootstrap per run key.
// ABOUTME: Size-limited with oldest-first eviction so abandoned runs cannot wedge a key.

package runguard

import (
	"container/list"
	"sync"
	"time"
)

// guardEntry stores when a key was acquired and its position in the order list.
type guardEntry struct {
	acquired time.Time
	gen      uint64
	element  *list.Element
}

// Guard tracks in-flight run keys.
// Uses a doubly-linked list to maintain acquisition order for O(1) eviction.
type Guard struct {
	mu      sync.Mutex
	held    map[string]*guardEntry
	order   *list.List // keys in acquisition order (oldest at front)
	ttl     time.Duration
	maxSize int
	gen     uint64
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a guard with the specified TTL and maximum size.
// A background goroutine periodically removes expired entries.
func New(ttl time.Duration, maxSize int) *Guard {
	if maxSize <= 0 {
		maxSize = 1
	}
	g := &Guard{
		held:    make(map[string]*guardEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go g.cleanup()
	return g
}

// Acquire admits key if no unexpired run holds it. The returned release
// function frees the key; it is safe to call more than once and never frees
// a later acquisition of the same key.
func (g *Guard) Acquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if entry, exists := g.held[key]; exists {
		if now.Sub(entry.acquired) < g.ttl {
			return func() {}, false
		}
		g.removeLocked(key, entry)
	}

	if len(g.held) >= g.maxSize {
		g.evictOldest()
	}

	g.gen++
	gen := g.gen
	g.held[key] = &guardEntry{
		acquired: now,
		gen:      gen,
		element:  g.order.PushBack(key),
	}

	var once sync.Once
	return func() {
		once.Do(func() { g.release(key, gen) })
	}, true
}

// Held reports whether key is currently held and unexpired.
func (g *Guard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.held[key]
	return ok && g.now().Sub(entry.acquired) < g.ttl
}

// Len returns the number of tracked keys, including expired ones not yet cleaned.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.held)
}

func (g *Guard) release(key string, gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if entry, ok := g.held[key]; ok && entry.gen == gen {
		g.removeLocked(key, entry)
	}
}

// removeLocked deletes key. Must be called with mu held.
func (g *Guard) removeLocked(key string, entry *guardEntry) {
	g.order.Remove(entry.element)
	delete(g.held, key)
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (g *Guard) evictOldest() {
	front := g.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	g.order.Remove(front)
	delete(g.held, key)
}

// cleanup runs in a background goroutine, periodically removing expired entries.
func (g *Guard) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.runCleanup()
		case <-g.done:
			return
		}
	}
}

// runCleanup removes all expired entries.
func (g *Guard) runCleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for key, entry := range g.held {
		if now.Sub(entry.acquired) >= g.ttl {
			g.removeLocked(key, entry)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.closed {
		close(g.done)
		g.closed = true
	}
}
