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

// FileContentStore keeps learning content as one JSON array document,
// rewritten in full under a mutex on every create.
type FileContentStore struct {
	mu   sync.Mutex
	path string
	log  *logrus.Logger
}

func NewFileContentStore(path string, log *logrus.Logger) (*FileContentStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create content store directory: %w", err)
	}
	return &FileContentStore{path: path, log: log}, nil
}

func (s *FileContentStore) loadLocked() []models.Content {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warn("unreadable content store, treating as empty")
		}
		return nil
	}
	var items []models.Content
	if err := json.Unmarshal(raw, &items); err != nil {
		s.log.WithError(err).Warn("corrupt content store, treating as empty")
		return nil
	}
	return items
}

func (s *FileContentStore) saveLocked(items []models.Content) error {
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode content store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write content store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace content store: %w", err)
	}
	return nil
}

func (s *FileContentStore) List(context.Context) ([]models.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.loadLocked()
	if items == nil {
		items = []models.Content{}
	}
	return items, nil
}

func (s *FileContentStore) Create(_ context.Context, req models.CreateContentRequest) (*models.Content, error) {
	if req.Title == "" || req.ContentType == "" {
		return nil, ErrContentMissingFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.loadLocked()
	var maxID int64
	for _, it := range items {
		if it.ID > maxID {
			maxID = it.ID
		}
	}

	item := models.Content{
		ID:          maxID + 1,
		Title:       req.Title,
		ContentType: req.ContentType,
		Description: req.Description,
		Data:        req.Data,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.saveLocked(append(items, item)); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *FileContentStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loadLocked()), nil
}
