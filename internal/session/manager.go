package session

import (
	"sync"

	"github.com/google/uuid"

	"importador/internal/ingest"
	"importador/internal/layout"
)

// Manager tracks live editing sessions by identifier so the HTTP layer
// can route requests to them. Each session itself is single-caller;
// the manager only guards the lookup table.
type Manager struct {
	ingestor *ingest.Ingestor
	store    *layout.Store
	catalog  layout.Catalog

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager over shared collaborators.
func NewManager(ingestor *ingest.Ingestor, store *layout.Store, catalog layout.Catalog) *Manager {
	return &Manager{
		ingestor: ingestor,
		store:    store,
		catalog:  catalog,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new empty session and returns its identifier.
func (m *Manager) Create() (string, *Session) {
	id := uuid.New().String()
	s := New(m.ingestor, m.store, m.catalog)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	return id, s
}

// Get returns the session with the given identifier.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	return s, ok
}

// Close discards a session. Returns false if it does not exist.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
