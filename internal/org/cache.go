package org

// Cache is the resolution context of a Resolver: the fetched organization
// tree plus the memoized results of the three lookups, keyed by their exact
// input. It lives until Clear is called; results may go stale if the
// organization changes in the meantime.
//
// Cache is not safe for concurrent use.
type Cache struct {
	tree *tree

	accountByName map[string]string
	ouByName      map[string]string
	accountsInOU  map[string][]string

	stats CacheStats
}

// CacheStats reports memoization effectiveness, per lookup.
type CacheStats struct {
	AccountHits      int `json:"account_hits"`
	AccountMisses    int `json:"account_misses"`
	OUHits           int `json:"ou_hits"`
	OUMisses         int `json:"ou_misses"`
	OUAccountsHits   int `json:"ou_accounts_hits"`
	OUAccountsMisses int `json:"ou_accounts_misses"`
}

// NewCache returns an empty resolution context.
func NewCache() *Cache {
	c := &Cache{}
	c.Clear()
	return c
}

// Clear drops every memoized result and the fetched tree.
func (c *Cache) Clear() {
	c.tree = newTree()
	c.accountByName = make(map[string]string)
	c.ouByName = make(map[string]string)
	c.accountsInOU = make(map[string][]string)
	c.stats = CacheStats{}
}

// Stats returns a snapshot of hit/miss counters since the last Clear.
func (c *Cache) Stats() CacheStats {
	return c.stats
}

// Node returns a fetched node by ID.
func (c *Cache) Node(id string) (Node, bool) {
	n, ok := c.tree.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}
