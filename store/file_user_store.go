package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"learnscope/api/models"
)

// userRecord is the on-disk form of a user; unlike the API-facing model it
// persists the password hash.
type userRecord struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	HashedPassword []byte    `json:"hashedPassword"`
	CreatedAt      time.Time `json:"created_at"`
}

// FileUserStore keeps the user table as one JSON array document, read in
// full and rewritten in full under a mutex on every mutation.
type FileUserStore struct {
	mu   sync.Mutex
	path string
	log  *logrus.Logger
}

func NewFileUserStore(path string, log *logrus.Logger) (*FileUserStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create user store directory: %w", err)
	}
	return &FileUserStore{path: path, log: log}, nil
}

// loadLocked reads the full collection; a missing or corrupt document fails
// closed to an empty one.
func (s *FileUserStore) loadLocked() []userRecord {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warn("unreadable user store, treating as empty")
		}
		return nil
	}
	var users []userRecord
	if err := json.Unmarshal(raw, &users); err != nil {
		s.log.WithError(err).Warn("corrupt user store, treating as empty")
		return nil
	}
	return users
}

func (s *FileUserStore) saveLocked(users []userRecord) error {
	raw, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write user store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace user store: %w", err)
	}
	return nil
}

func (s *FileUserStore) CreateUser(_ context.Context, username, email string, hashedPassword []byte) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.loadLocked()
	var maxID int64
	for _, u := range users {
		if u.Username == username {
			return nil, ErrUserExists
		}
		if u.ID > maxID {
			maxID = u.ID
		}
	}

	rec := userRecord{
		ID:             maxID + 1,
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.saveLocked(append(users, rec)); err != nil {
		return nil, err
	}
	return rec.user(), nil
}

func (s *FileUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.loadLocked() {
		if u.Username == username {
			return u.user(), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *FileUserStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loadLocked()), nil
}

func (r *userRecord) user() *models.User {
	return &models.User{
		ID:             r.ID,
		Username:       r.Username,
		Email:          r.Email,
		HashedPassword: r.HashedPassword,
		CreatedAt:      r.CreatedAt,
	}
}
