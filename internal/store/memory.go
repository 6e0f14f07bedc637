package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"form4qa/internal/domain"
)

// MemoryStore keeps projects for the life of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[string][]byte)}
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	var p domain.Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode project %s: %w", id, err)
	}
	return &p, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Project, 0, len(m.projects))
	for id, raw := range m.projects {
		var p domain.Project
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode project %s: %w", id, err)
		}
		out = append(out, p)
	}
	sortProjects(out)
	return out, nil
}

// Save stores a copy, so later caller mutations are not visible.
func (m *MemoryStore) Save(ctx context.Context, p *domain.Project) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode project %s: %w", p.ID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = raw
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

// sortProjects oldest first, ties by id
func sortProjects(ps []domain.Project) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Created.Equal(ps[j].Created) {
			return ps[i].ID < ps[j].ID
		}
		return ps[i].Created.Before(ps[j].Created)
	})
}
