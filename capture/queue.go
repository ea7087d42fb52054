package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"learnscope/api/models"
)

// RetryQueue is the client-local durable buffer of not-yet-acknowledged
// events, persisted as one JSON document. Ordering is preserved; a corrupt
// or missing file reads as empty.
type RetryQueue struct {
	mu   sync.Mutex
	path string
	log  *logrus.Logger
}

func NewRetryQueue(path string, log *logrus.Logger) *RetryQueue {
	return &RetryQueue{path: path, log: log}
}

// Enqueue appends one event to the queue.
func (q *RetryQueue) Enqueue(ev models.InteractionEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.loadLocked()
	return q.saveLocked(append(items, ev))
}

// Take removes and returns all queued events. Callers must Requeue
// anything that fails delivery again.
func (q *RetryQueue) Take() ([]models.InteractionEvent, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.loadLocked()
	if len(items) == 0 {
		return nil, nil
	}
	if err := q.saveLocked(nil); err != nil {
		return nil, err
	}
	return items, nil
}

// Requeue puts undelivered events back, ahead of anything enqueued since
// they were taken.
func (q *RetryQueue) Requeue(events []models.InteractionEvent) error {
	if len(events) == 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	current := q.loadLocked()
	return q.saveLocked(append(events, current...))
}

// Len returns the number of queued events.
func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.loadLocked())
}

func (q *RetryQueue) loadLocked() []models.InteractionEvent {
	raw, err := os.ReadFile(q.path)
	if err != nil {
		if !os.IsNotExist(err) {
			q.log.WithError(err).Warn("unreadable retry queue, treating as empty")
		}
		return nil
	}
	var items []models.InteractionEvent
	if err := json.Unmarshal(raw, &items); err != nil {
		q.log.WithError(err).Warn("corrupt retry queue, treating as empty")
		return nil
	}
	return items
}

func (q *RetryQueue) saveLocked(items []models.InteractionEvent) error {
	if items == nil {
		items = []models.InteractionEvent{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode retry queue: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return fmt.Errorf("failed to create retry queue directory: %w", err)
	}
	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write retry queue: %w", err)
	}
	if err := os.Rename(tmp, q.path); err != nil {
		return fmt.Errorf("failed to replace retry queue: %w", err)
	}
	return nil
}
