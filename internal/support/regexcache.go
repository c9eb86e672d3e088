package support

import (
	"container/list"
	"regexp"
	"sync"
)

// defaultRegexCacheCapacity is the capacity used when none is given; it
// is above the ≥64 minimum §4.C requires.
const defaultRegexCacheCapacity = 128

// RegexCache is a size-bounded, mutex-guarded LRU of compiled regular
// expressions shared by every concurrent interpreter clone, used by the
// `~` operator so identical patterns compile only once.
type RegexCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
}

type regexCacheEntry struct {
	pattern string
	re      *regexp.Regexp
}

// NewRegexCache returns a cache with the given capacity, or
// defaultRegexCacheCapacity if capacity is non-positive.
func NewRegexCache(capacity int) *RegexCache {
	if capacity <= 0 {
		capacity = defaultRegexCacheCapacity
	}
	return &RegexCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Compile returns the compiled form of pattern, serving from cache when
// possible and evicting the least-recently-used entry on overflow.
func (c *RegexCache) Compile(pattern string) (*regexp.Regexp, error) {
	c.mu.Lock()
	if el, ok := c.entries[pattern]; ok {
		c.order.MoveToFront(el)
		re := el.Value.(*regexCacheEntry).re
		c.mu.Unlock()
		return re, nil
	}
	c.mu.Unlock()

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[pattern]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*regexCacheEntry).re, nil
	}
	el := c.order.PushFront(&regexCacheEntry{pattern: pattern, re: re})
	c.entries[pattern] = el
	for c.order.Len() > c.capacity {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.order.Remove(back)
		delete(c.entries, back.Value.(*regexCacheEntry).pattern)
	}
	return re, nil
}

// Len reports the current number of cached patterns, for tests.
func (c *RegexCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
