package comments

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	comments   map[string]*Comment
	byContract map[string][]string // contract ID -> comment IDs in post order
}

// NewMemoryStore creates an empty in-memory comment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		comments:   make(map[string]*Comment),
		byContract: make(map[string][]string),
	}
}

func copyComment(c *Comment) *Comment {
	cp := *c
	return &cp
}

func (m *MemoryStore) Create(ctx context.Context, comment *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.comments[comment.ID] = copyComment(comment)
	m.byContract[comment.ContractID] = append(m.byContract[comment.ContractID], comment.ID)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.comments[id]
	if !ok {
		return nil, ErrCommentNotFound
	}
	return copyComment(c), nil
}

func (m *MemoryStore) ListByContract(ctx context.Context, contractID string, limit int) ([]*Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byContract[contractID]
	out := make([]*Comment, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyComment(m.comments[id]))
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
