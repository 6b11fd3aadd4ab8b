package payment

import "sync"

// AmountCache remembers the amount requested for each gateway authority so
// verification always uses the server-side figure, never callback input.
// Entries are consumed on first take, which makes a replayed callback miss.
type AmountCache struct {
	mu      sync.Mutex
	amounts map[string]int64
}

// NewAmountCache creates an empty amount cache.
func NewAmountCache() *AmountCache {
	return &AmountCache{amounts: make(map[string]int64)}
}

// Put records the amount requested under the given authority.
func (c *AmountCache) Put(authority string, amount int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.amounts[authority] = amount
}

// TakeAndRemove returns the cached amount for the authority and deletes it
// in the same step, so two concurrent callers cannot both succeed.
func (c *AmountCache) TakeAndRemove(authority string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	amount, ok := c.amounts[authority]
	if ok {
		delete(c.amounts, authority)
	}
	return amount, ok
}

// Len returns the number of cached entries.
func (c *AmountCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.amounts)
}
