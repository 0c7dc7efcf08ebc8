package provision

import "sync"

// Cache memoises the guild's provisioned structure: the active and archive
// category IDs per guild, and the channel IDs per (guild, channel name).
// Container lookup and creation is the most rate-limit-exposed discord
// operation, so every ensure path goes through here first.
//
// The only mutation discipline is invalidate-on-not-found: entries are
// removed when the platform reports the cached ID gone, and the ensure path
// falls through to recreate. The cache is an explicit injectable object so
// tests and multiple app instances each hold their own.
type Cache struct {
	mu sync.Mutex

	// active and archive are keyed by guild ID.
	active  map[string]string
	archive map[string]string

	// channels is keyed by guild ID + "/" + channel name.
	channels map[string]string
}

// NewCache creates an empty structure cache.
func NewCache() *Cache {
	return &Cache{
		active:   make(map[string]string),
		archive:  make(map[string]string),
		channels: make(map[string]string),
	}
}

func (c *Cache) activeCategory(guildID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.active[guildID]
	return id, ok
}

func (c *Cache) setActiveCategory(guildID, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active[guildID] = id
}

func (c *Cache) invalidateActiveCategory(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, guildID)
}

func (c *Cache) archiveCategory(guildID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.archive[guildID]
	return id, ok
}

func (c *Cache) setArchiveCategory(guildID, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.archive[guildID] = id
}

func (c *Cache) invalidateArchiveCategory(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.archive, guildID)
}

func channelKey(guildID, name string) string {
	return guildID + "/" + name
}

func (c *Cache) channel(guildID, name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.channels[channelKey(guildID, name)]
	return id, ok
}

func (c *Cache) setChannel(guildID, name, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[channelKey(guildID, name)] = id
}

func (c *Cache) invalidateChannel(guildID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.channels, channelKey(guildID, name))
}
