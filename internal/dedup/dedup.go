// Package dedup holds the set of identity keys already queued this session.
//
// A Cache is not safe for concurrent use. It belongs to the goroutine that
// drives scanning; the background worker never touches it.
package dedup

// Cache is a set of identity keys
type Cache struct {
	seen map[string]struct{}
}

// New returns an empty cache
func New() *Cache {
	return &Cache{seen: make(map[string]struct{})}
}

// Add records key and reports whether it was new
func (c *Cache) Add(key string) bool {
	if _, ok := c.seen[key]; ok {
		return false
	}
	c.seen[key] = struct{}{}
	return true
}

// Contains reports whether key has been recorded
func (c *Cache) Contains(key string) bool {
	_, ok := c.seen[key]
	return ok
}

// Clear forgets every key
func (c *Cache) Clear() {
	clear(c.seen)
}

// Len returns the number of recorded keys
func (c *Cache) Len() int {
	return len(c.seen)
}
