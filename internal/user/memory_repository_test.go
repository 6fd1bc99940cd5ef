package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu          sync.Mutex
	users       map[uuid.UUID]User
	tokens      map[string]ResetToken
	takenNumber map[string]bool
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		users:       make(map[uuid.UUID]User),
		tokens:      make(map[string]ResetToken),
		takenNumber: make(map[string]bool),
	}
}

func (m *memoryRepository) createUser(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	m.takenNumber[user.CustomerNumber] = true
	return nil
}

func (m *memoryRepository) getUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memoryRepository) getUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m *memoryRepository) userExists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[id]
	return ok, nil
}

func (m *memoryRepository) identityConflicts(_ context.Context, email, ssnLast4 string, dateOfBirth time.Time) (IdentityConflicts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c IdentityConflicts
	for _, u := range m.users {
		c.Email = c.Email || u.Email == email
		c.SSNLast4 = c.SSNLast4 || u.SSNLast4 == ssnLast4
		c.DateOfBirth = c.DateOfBirth || u.DateOfBirth.Equal(dateOfBirth)
	}
	return c, nil
}

func (m *memoryRepository) emailInUseByOther(_ context.Context, email string, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email && u.ID != userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepository) customerNumberExists(_ context.Context, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.takenNumber[number], nil
}

func (m *memoryRepository) updateProfile(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memoryRepository) updatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	m.users[userID] = u
	return nil
}

func (m *memoryRepository) replaceResetToken(_ context.Context, token *ResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, t := range m.tokens {
		if t.UserID == token.UserID && t.UsedAt == nil {
			delete(m.tokens, key)
		}
	}
	m.tokens[token.Token] = *token
	return nil
}

func (m *memoryRepository) getResetToken(_ context.Context, token string) (*ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok {
		return nil, ErrResetTokenNotFound
	}
	return &t, nil
}

func (m *memoryRepository) consumeResetToken(_ context.Context, token *ResetToken, passwordHash string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tokens[token.Token]
	if !ok || stored.UsedAt != nil {
		return ErrResetTokenNotFound
	}
	stored.UsedAt = &usedAt
	m.tokens[token.Token] = stored
	u := m.users[token.UserID]
	u.PasswordHash = passwordHash
	m.users[token.UserID] = u
	return nil
}

func (m *memoryRepository) purgeExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for key, t := range m.tokens {
		if t.ExpiresAt.Before(now) || t.UsedAt != nil {
			delete(m.tokens, key)
			removed++
		}
	}
	return removed, nil
}
