package clips

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Manager is an in-memory Store
type Manager struct {
	mu    sync.RWMutex
	clips map[string]*Clip
}

// NewManager creates a new clip manager
func NewManager() *Manager {
	return &Manager{
		clips: make(map[string]*Clip),
	}
}

// Add adds a clip to the manager
func (m *Manager) Add(_ context.Context, clip *Clip) error {
	if err := prepare(clip); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.clips[clip.ID]; exists {
		return fmt.Errorf("clip %s already exists", clip.ID)
	}
	c := *clip
	m.clips[clip.ID] = &c
	return nil
}

// Get retrieves a clip by ID
func (m *Manager) Get(_ context.Context, id string) (*Clip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	clip, ok := m.clips[id]
	if !ok {
		return nil, notFound(id)
	}
	c := *clip
	return &c, nil
}

// List returns all clips, newest first
func (m *Manager) List(_ context.Context) ([]*Clip, error) {
	m.mu.RLock()
	out := make([]*Clip, 0, len(m.clips))
	for _, clip := range m.clips {
		c := *clip
		out = append(out, &c)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Remove deletes a clip by ID
func (m *Manager) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clips[id]; !ok {
		return notFound(id)
	}
	delete(m.clips, id)
	return nil
}

func (m *Manager) Close() error { return nil }
