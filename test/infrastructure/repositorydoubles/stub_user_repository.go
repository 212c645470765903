//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/domain/repositories"
)

// StubUserRepository implements repositories.UserRepository in memory.
type StubUserRepository struct {
	mu    sync.Mutex
	users map[string]entities.User

	GetErr  error
	SaveErr error
	Saved   []entities.User
}

var _ repositories.UserRepository = (*StubUserRepository)(nil)

// NewStubUserRepository creates a store holding the given users.
func NewStubUserRepository(users ...*entities.User) *StubUserRepository {
	stub := &StubUserRepository{users: map[string]entities.User{}}
	for _, user := range users {
		stub.users[user.DatabaseName] = *user
	}
	return stub
}

func (s *StubUserRepository) Get(_ context.Context, databaseName string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	user, ok := s.users[databaseName]
	if !ok {
		return nil, nil //nolint:nilnil // no stored session
	}
	return &user, nil
}

func (s *StubUserRepository) Save(_ context.Context, user *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.users[user.DatabaseName] = *user
	s.Saved = append(s.Saved, *user)
	return nil
}

func (s *StubUserRepository) Delete(_ context.Context, databaseName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, databaseName)
	return nil
}

// Stored returns the user saved for a repository, or nil.
func (s *StubUserRepository) Stored(databaseName string) *entities.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[databaseName]
	if !ok {
		return nil
	}
	return &user
}
