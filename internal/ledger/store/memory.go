package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fekuna/omnipos-ledger-service/internal/ledger"
	"github.com/fekuna/omnipos-ledger-service/internal/model"
)

// ErrNameTaken is returned by Create when the product name already exists.
// The use case treats an existing name as a restock, so this surfacing means
// a caller skipped the lookup.
var ErrNameTaken = errors.New("product name already exists")

// Memory is the in-memory catalog arena. A product lives once, reachable
// through two indices: its position in seq (the identifier) and its name.
// Both indices hold the same pointer, so they cannot diverge. Reads return
// deep copies.
type Memory struct {
	mu     sync.RWMutex
	seq    []*model.Product
	byName map[string]*model.Product
}

var _ ledger.Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		byName: make(map[string]*model.Product),
	}
}

func (m *Memory) Create(name string, quantity int64, createdAt time.Time) (*model.Product, error) {
	if name == "" {
		return nil, ledger.ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byName[name]; ok {
		return nil, ErrNameTaken
	}

	p := &model.Product{
		ID:          len(m.seq),
		Name:        name,
		Quantity:    quantity,
		PurchasedAt: make(map[string]time.Time),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	m.seq = append(m.seq, p)
	m.byName[name] = p

	return p.Clone(), nil
}

func (m *Memory) GetByID(id int) (*model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if id < 0 || id >= len(m.seq) {
		return nil, ledger.ErrProductNotFound
	}
	return m.seq[id].Clone(), nil
}

func (m *Memory) GetByName(name string) (*model.Product, error) {
	// The empty name is reserved to mean "does not exist".
	if name == "" {
		return nil, ledger.ErrProductNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.byName[name]
	if !ok {
		return nil, ledger.ErrProductNotFound
	}
	return p.Clone(), nil
}

func (m *Memory) Update(id int, fn func(*model.Product)) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id < 0 || id >= len(m.seq) {
		return nil, ledger.ErrProductNotFound
	}
	fn(m.seq[id])
	return m.seq[id].Clone(), nil
}

func (m *Memory) ListAvailable() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.seq))
	for _, p := range m.seq {
		if p.Quantity > 0 {
			names = append(names, p.Name)
		}
	}
	return names, nil
}

func (m *Memory) List() ([]model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Product, 0, len(m.seq))
	for _, p := range m.seq {
		out = append(out, *p.Clone())
	}
	return out, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.seq)
}

// insert loads a snapshot record at its recorded position. Records must
// arrive in identifier order; the bolt store relies on this when reloading.
func (m *Memory) insert(p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID != len(m.seq) {
		return fmt.Errorf("snapshot out of order: got id %d, want %d", p.ID, len(m.seq))
	}
	if _, ok := m.byName[p.Name]; ok {
		return fmt.Errorf("snapshot duplicates name %q", p.Name)
	}
	if p.PurchasedAt == nil {
		p.PurchasedAt = make(map[string]time.Time)
	}
	m.seq = append(m.seq, p)
	m.byName[p.Name] = p
	return nil
}

// removeLast rolls back the most recent Create. Only the bolt store uses it,
// when the checkpoint write fails after the in-memory insert.
func (m *Memory) removeLast(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != len(m.seq)-1 {
		return
	}
	p := m.seq[id]
	m.seq = m.seq[:id]
	delete(m.byName, p.Name)
}

// swap commits an externally prepared copy of a product back into both
// indices in one step.
func (m *Memory) swap(p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID < 0 || p.ID >= len(m.seq) {
		return ledger.ErrProductNotFound
	}
	old := m.seq[p.ID]
	m.seq[p.ID] = p
	delete(m.byName, old.Name)
	m.byName[p.Name] = p
	return nil
}
