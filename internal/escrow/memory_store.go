package escrow

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory escrow store for demo/development mode.
// Lookups by contract and authority go through dedicated indexes so
// access stays O(1) as the ledger grows.
type MemoryStore struct {
	mu          sync.RWMutex
	payments    map[string]*Payment
	byContract  map[string]string // contractID -> payment ID
	byAuthority map[string]string // authority -> payment ID
	order       []string          // insertion order of payment IDs
}

// NewMemoryStore creates a new in-memory escrow store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payments:    make(map[string]*Payment),
		byContract:  make(map[string]string),
		byAuthority: make(map[string]string),
	}
}

func (m *MemoryStore) Create(ctx context.Context, p *Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *p
	m.payments[p.ID] = &cp
	m.byContract[p.ContractID] = p.ID
	if p.Authority != "" {
		m.byAuthority[p.Authority] = p.ID
	}
	m.order = append(m.order, p.ID)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) GetByContract(ctx context.Context, contractID string) (*Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byContract[contractID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	cp := *m.payments[id]
	return &cp, nil
}

func (m *MemoryStore) GetByAuthority(ctx context.Context, authority string) (*Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byAuthority[authority]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	cp := *m.payments[id]
	return &cp, nil
}

func (m *MemoryStore) Update(ctx context.Context, p *Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.payments[p.ID]
	if !ok {
		return ErrPaymentNotFound
	}

	// Keep the authority index current when initiation attaches one.
	if old.Authority != p.Authority {
		if old.Authority != "" {
			delete(m.byAuthority, old.Authority)
		}
		if p.Authority != "" {
			m.byAuthority[p.Authority] = p.ID
		}
	}

	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Payment, 0, len(m.order))
	for _, id := range m.order {
		cp := *m.payments[id]
		result = append(result, &cp)
	}
	return result, nil
}
