package repository

import (
	"context"
	"sync"

	"nowas_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// MemoryStore keeps leads in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	leads []domain.Lead
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	if lead.Status == "" {
		lead.Status = domain.StatusNew
	}
	m.mu.Lock()
	m.leads = append(m.leads, lead)
	m.mu.Unlock()
	return lead, nil
}

func (m *MemoryStore) List(_ context.Context) ([]domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Lead(nil), m.leads...), nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.Status) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.leads {
		if m.leads[i].ID == id {
			m.leads[i].Status = status
			return m.leads[i], nil
		}
	}
	return domain.Lead{}, errLeadNotFound(id)
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Backend() string { return "memory" }
