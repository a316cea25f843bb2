package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/models"
	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/platform/sentinel"
)

// Store keeps user records in memory. It intentionally favors clarity over
// performance and backs development and unit tests.
type Store struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func New() *Store {
	return &Store{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func (s *Store) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return sentinel.ErrConflict
	}
	key := emailKey(user.Email)
	if _, ok := s.byEmail[key]; ok {
		return sentinel.ErrConflict
	}
	s.users[user.ID] = user.Clone()
	s.byEmail[key] = user.ID
	return nil
}

func (s *Store) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return user.Clone(), nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.users[userID].Clone(), nil
}

func (s *Store) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !strings.EqualFold(existing.Email, user.Email) {
		delete(s.byEmail, emailKey(existing.Email))
		s.byEmail[emailKey(user.Email)] = user.ID
	}
	s.users[user.ID] = user.Clone()
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
