package store

import (
	"sync"

	"edureview/pkg/domain"
)

// MemoryStore keeps records in-process. Used in tests and local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	email    map[string]string // email -> user ID
	outcomes map[string]domain.ReviewOutcome
	order    []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		email:    make(map[string]string),
		outcomes: make(map[string]domain.ReviewOutcome),
	}
}

// SaveUser stores or replaces a user record.
func (m *MemoryStore) SaveUser(user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[user.ID]; ok {
		delete(m.email, existing.Email)
	} else {
		m.order = append(m.order, user.ID)
	}
	m.users[user.ID] = user
	m.email[user.Email] = user.ID
	return nil
}

// GetUserByID fetches a user by id.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	return user, ok, nil
}

// GetUserByEmail fetches a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	user, ok := m.users[id]
	return user, ok, nil
}

// HasUserEmail checks whether an email is registered.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// UpdateUser applies a partial update under one lock so concurrent readers
// never observe a half-applied record.
func (m *MemoryStore) UpdateUser(id string, update UserUpdate) (domain.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, false, nil
	}
	if update.Email != nil {
		delete(m.email, user.Email)
		user.Email = *update.Email
		m.email[user.Email] = id
	}
	if update.FullName != nil {
		user.FullName = *update.FullName
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.Active != nil {
		user.Active = *update.Active
	}
	m.users[id] = user
	return user, true, nil
}

// ListUsers returns users in insertion order.
func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]domain.User, 0, len(m.order))
	for _, id := range m.order {
		if user, ok := m.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

// SaveReviewOutcome stores or replaces a review outcome.
func (m *MemoryStore) SaveReviewOutcome(outcome domain.ReviewOutcome) error {
	m.mu.Lock()
	m.outcomes[outcome.ID] = outcome
	m.mu.Unlock()
	return nil
}

// GetReviewOutcome fetches a stored outcome by id.
func (m *MemoryStore) GetReviewOutcome(id string) (domain.ReviewOutcome, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	outcome, ok := m.outcomes[id]
	return outcome, ok, nil
}
