package store

import (
	"bufio"
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

// FileEventStore is the default event log backend: an append-only file of
// JSON lines, one event per line. All state is also held in memory, so
// reads never touch the disk and a rewrite of the full log is never needed.
// A single mutex serializes writers; two concurrent appends can no longer
// lose each other's record.
type FileEventStore struct {
	mu     sync.Mutex
	file   *os.File
	events []models.InteractionEvent
	byCEID map[string]int64 // clientEventId -> server id
	nextID int64
	log    *logrus.Logger
}

// OpenFileEventStore opens (creating if needed) the JSON-lines log at path
// and replays it into memory. Lines that fail to decode are skipped with a
// warning; a corrupt log degrades to the events that do parse rather than
// failing the open.
func OpenFileEventStore(path string, log *logrus.Logger) (*FileEventStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create event log directory: %w", err)
	}

	s := &FileEventStore{
		byCEID: make(map[string]int64),
		log:    log,
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log %s: %w", path, err)
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var maxID int64
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev models.InteractionEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			log.WithError(err).Warn("skipping corrupt event log line")
			continue
		}
		s.events = append(s.events, ev)
		if ev.ClientEventID != "" {
			s.byCEID[ev.ClientEventID] = ev.ID
		}
		if ev.ID > maxID {
			maxID = ev.ID
		}
	}
	if err := scanner.Err(); err != nil {
		// Fail closed: keep what replayed cleanly, log the rest.
		log.WithError(err).Warn("event log truncated while replaying")
	}

	// Ids stay time-ordered across restarts but can never collide or
	// regress within one process.
	s.nextID = time.Now().UnixMilli()
	if maxID >= s.nextID {
		s.nextID = maxID + 1
	}
	s.file = f
	return s, nil
}

func (s *FileEventStore) Append(_ context.Context, ev models.InteractionEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ClientEventID != "" {
		if id, ok := s.byCEID[ev.ClientEventID]; ok {
			// Retry of an already-acknowledged delivery; idempotent.
			return id, nil
		}
	}

	ev.ID = s.nextID
	line, err := json.Marshal(&ev)
	if err != nil {
		return 0, fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return 0, fmt.Errorf("failed to append event: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync event log: %w", err)
	}

	s.nextID++
	s.events = append(s.events, ev)
	if ev.ClientEventID != "" {
		s.byCEID[ev.ClientEventID] = ev.ID
	}
	return ev.ID, nil
}

func (s *FileEventStore) List(_ context.Context, f EventFilter) ([]models.InteractionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.InteractionEvent, 0, len(s.events))
	for i := range s.events {
		if f.Matches(&s.events[i]) {
			matched = append(matched, s.events[i])
		}
	}
	return matched, nil
}

func (s *FileEventStore) ListByUser(ctx context.Context, userID string) ([]models.InteractionEvent, error) {
	events, err := s.List(ctx, EventFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	SortByTimestampDesc(events)
	return events, nil
}

func (s *FileEventStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events), nil
}

// Close closes the underlying log file.
func (s *FileEventStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
