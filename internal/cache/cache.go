package cache

import "sync"

// family holds the latest published generation for one cache family.
// Entries are value snapshots; once published they are never mutated,
// only replaced as a whole by the next Publish.
type family struct {
	mu      sync.RWMutex
	entries map[string]any
}

// Cache is the process-wide state cache.
//
// It is created once at startup with the full set of family names and
// torn down with the process. All methods are safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	families map[string]*family
}

// New creates a cache with the given families, each starting empty.
func New(names ...string) *Cache {
	c := &Cache{
		families: make(map[string]*family, len(names)),
	}
	for _, name := range names {
		c.families[name] = &family{entries: map[string]any{}}
	}
	return c
}

// Publish atomically replaces the contents of a family.
//
// The entries map is copied, so the caller may keep and reuse its map.
// Readers that arrive during the publish block until the swap completes
// and then see the complete new generation. Publishing to an unknown
// family registers it; this keeps incremental startup safe.
func (c *Cache) Publish(name string, entries map[string]any) {
	f := c.getOrCreate(name)

	next := make(map[string]any, len(entries))
	for k, v := range entries {
		next[k] = v
	}

	f.mu.Lock()
	f.entries = next
	f.mu.Unlock()
}

// Family returns a copy of the family's current entries.
//
// The copy is taken under the family's read lock, so concurrent
// publishes are never observed half-applied. Returns false if the
// family has never been registered or published.
func (c *Cache) Family(name string) (map[string]any, bool) {
	c.mu.RLock()
	f, ok := c.families[name]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string]any, len(f.entries))
	for k, v := range f.entries {
		out[k] = v
	}
	return out, true
}

// All returns a copy of every family's current entries, keyed by family
// name. Each family is copied under its own read lock; families may be
// captured at slightly different instants, which is accepted.
func (c *Cache) All() map[string]map[string]any {
	c.mu.RLock()
	names := make([]string, 0, len(c.families))
	for name := range c.families {
		names = append(names, name)
	}
	c.mu.RUnlock()

	out := make(map[string]map[string]any, len(names))
	for _, name := range names {
		if entries, ok := c.Family(name); ok {
			out[name] = entries
		}
	}
	return out
}

// Families returns the names of all registered families.
func (c *Cache) Families() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.families))
	for name := range c.families {
		names = append(names, name)
	}
	return names
}

// getOrCreate returns the named family, registering it if needed.
func (c *Cache) getOrCreate(name string) *family {
	c.mu.RLock()
	f, ok := c.families[name]
	c.mu.RUnlock()
	if ok {
		return f
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok = c.families[name]; ok {
		return f
	}
	f = &family{entries: map[string]any{}}
	c.families[name] = f
	return f
}
