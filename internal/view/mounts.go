package view

import "sync"

// Mounts keeps the screen each client mounted last. Mounting again replaces the
// previous screen, which is how navigation discards local state.
type Mounts[S any] struct {
	mu      sync.RWMutex
	screens map[string]S
}

func NewMounts[S any]() *Mounts[S] {
	return &Mounts[S]{screens: make(map[string]S)}
}

func (m *Mounts[S]) Put(clientID string, screen S) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.screens[clientID] = screen
}

func (m *Mounts[S]) Get(clientID string) (S, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	screen, ok := m.screens[clientID]
	return screen, ok
}

func (m *Mounts[S]) Drop(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.screens, clientID)
}

func (m *Mounts[S]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.screens)
}
