// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu            sync.RWMutex
	projects      map[string]*Project // keyed by project key
	order         []string            // project keys in insertion order
	credentials   map[string]*Credential
	notifications map[string][]*NotificationRecord // keyed by run ID

	// CreateErr, when set, is returned by CreateProject
	CreateErr error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		projects:      make(map[string]*Project),
		credentials:   make(map[string]*Credential),
		notifications: make(map[string][]*NotificationRecord),
	}
}

func copyProject(p *Project) *Project {
	c := *p
	c.EnabledLibraries = nonNil(slices.Clone(p.EnabledLibraries))
	if p.Repo != nil {
		repo := *p.Repo
		c.Repo = &repo
	}
	return &c
}

// CreateProject stores a new project.
func (m *MockStore) CreateProject(ctx context.Context, project *Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, exists := m.projects[project.Key]; exists {
		return ErrDuplicateProject
	}

	m.projects[project.Key] = copyProject(project)
	m.order = append(m.order, project.Key)
	return nil
}

// GetProject retrieves a project by key.
func (m *MockStore) GetProject(ctx context.Context, key string) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return copyProject(p), nil
}

// ListProjects returns an owner's projects, newest first.
func (m *MockStore) ListProjects(ctx context.Context, owner string) ([]*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*Project{}
	for i := len(m.order) - 1; i >= 0; i-- {
		p := m.projects[m.order[i]]
		if p.Owner == owner {
			result = append(result, copyProject(p))
		}
	}
	return result, nil
}

// FindProjectByRepo returns the owner's most recent project bound to repo.
func (m *MockStore) FindProjectByRepo(ctx context.Context, owner string, repo RepoRef) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.order) - 1; i >= 0; i-- {
		p := m.projects[m.order[i]]
		if p.Owner == owner && p.Repo != nil && *p.Repo == repo {
			return copyProject(p), nil
		}
	}
	return nil, ErrNotFound
}

// SaveCredential inserts or replaces a credential.
func (m *MockStore) SaveCredential(ctx context.Context, cred *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *cred
	key := cred.UserID + ":" + cred.Provider
	if existing, ok := m.credentials[key]; ok {
		c.CreatedAt = existing.CreatedAt
	}
	m.credentials[key] = &c
	return nil
}

// GetCredential retrieves a credential.
func (m *MockStore) GetCredential(ctx context.Context, userID, provider string) (*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.credentials[userID+":"+provider]
	if !ok {
		return nil, ErrNotFound
	}
	result := *c
	return &result, nil
}

// SaveNotification records a notification.
func (m *MockStore) SaveNotification(ctx context.Context, n *NotificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *n
	c.Metadata = maps.Clone(n.Metadata)
	m.notifications[n.RunID] = append(m.notifications[n.RunID], &c)
	return nil
}

// ListNotifications returns a run's notifications, oldest first.
func (m *MockStore) ListNotifications(ctx context.Context, runID string) ([]*NotificationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*NotificationRecord{}
	for _, n := range m.notifications[runID] {
		c := *n
		c.Metadata = maps.Clone(n.Metadata)
		result = append(result, &c)
	}
	return result, nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// Ensure MockStore implements Store.
var _ Store = (*MockStore)(nil)
