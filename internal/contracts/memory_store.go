package contracts

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	contracts map[string]*Contract
	byToken   map[string]string // linkToken -> contract ID
	order     []string          // insertion order of contract IDs
	versions  map[string][]*ContractVersion
}

// NewMemoryStore creates an empty in-memory contract store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contracts: make(map[string]*Contract),
		byToken:   make(map[string]string),
		versions:  make(map[string][]*ContractVersion),
	}
}

func copyContract(c *Contract) *Contract {
	cp := *c
	if c.SignedAt != nil {
		t := *c.SignedAt
		cp.SignedAt = &t
	}
	return &cp
}

func copyVersion(v *ContractVersion) *ContractVersion {
	cp := *v
	return &cp
}

func (m *MemoryStore) Create(ctx context.Context, contract *Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.contracts[contract.ID] = copyContract(contract)
	m.byToken[contract.LinkToken] = contract.ID
	m.order = append(m.order, contract.ID)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contracts[id]
	if !ok {
		return nil, ErrContractNotFound
	}
	return copyContract(c), nil
}

func (m *MemoryStore) GetByLinkToken(ctx context.Context, linkToken string) (*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byToken[linkToken]
	if !ok {
		return nil, ErrContractNotFound
	}
	return copyContract(m.contracts[id]), nil
}

func (m *MemoryStore) Update(ctx context.Context, contract *Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.contracts[contract.ID]
	if !ok {
		return ErrContractNotFound
	}
	if old.LinkToken != contract.LinkToken {
		delete(m.byToken, old.LinkToken)
		m.byToken[contract.LinkToken] = contract.ID
	}
	m.contracts[contract.ID] = copyContract(contract)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, status string, limit int) ([]*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Contract, 0, limit)
	for _, id := range m.order {
		c := m.contracts[id]
		if status != "" && string(c.Status) != status {
			continue
		}
		out = append(out, copyContract(c))
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateVersion(ctx context.Context, version *ContractVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.versions[version.ContractID] = append(m.versions[version.ContractID], copyVersion(version))
	return nil
}

func (m *MemoryStore) ListVersions(ctx context.Context, contractID string) ([]*ContractVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	vs := m.versions[contractID]
	out := make([]*ContractVersion, 0, len(vs))
	for _, v := range vs {
		out = append(out, copyVersion(v))
	}
	return out, nil
}
