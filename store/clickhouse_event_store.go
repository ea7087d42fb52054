// api/store/clickhouse_event_store.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"learnscope/api/database"
	"learnscope/api/models"
)

// ClickHouseEventStore is the scale-out event log backend, for deployments
// where a single-node file log is not enough. Same contract as the file
// store: append-only, idempotent on clientEventId.
type ClickHouseEventStore struct {
	DB  *database.ClickHouseClient
	log *logrus.Logger

	mu     sync.Mutex
	nextID int64
}

func NewClickHouseEventStore(ctx context.Context, chClient *database.ClickHouseClient, log *logrus.Logger) (*ClickHouseEventStore, error) {
	s := &ClickHouseEventStore{
		DB:     chClient,
		log:    log,
		nextID: time.Now().UnixMilli(),
	}

	var maxID int64
	row := chClient.Conn.QueryRow(ctx, `SELECT max(id) FROM clickstream_events`)
	if err := row.Scan(&maxID); err == nil && maxID >= s.nextID {
		s.nextID = maxID + 1
	}
	return s, nil
}

func (s *ClickHouseEventStore) Append(ctx context.Context, ev models.InteractionEvent) (int64, error) {
	if ev.ClientEventID != "" {
		var existing int64
		row := s.DB.Conn.QueryRow(ctx,
			`SELECT id FROM clickstream_events WHERE client_event_id = ? LIMIT 1`,
			ev.ClientEventID)
		if err := row.Scan(&existing); err == nil {
			return existing, nil
		}
	}

	s.mu.Lock()
	ev.ID = s.nextID
	s.nextID++
	s.mu.Unlock()

	var eventData []byte
	if data := ev.Data(); data != nil {
		var err error
		eventData, err = json.Marshal(data)
		if err != nil {
			return 0, fmt.Errorf("failed to encode event data: %w", err)
		}
	}

	var vw, vh int32
	if ev.Viewport != nil {
		vw, vh = int32(ev.Viewport.Width), int32(ev.Viewport.Height)
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO clickstream_events (
			id, client_event_id, session_id, user_id, event_type,
			event_data, timestamp_raw, url, user_agent, ip_address,
			viewport_width, viewport_height
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch insert: %w", err)
	}
	if err := batch.Append(
		ev.ID,
		ev.ClientEventID,
		ev.SessionID,
		ev.UserID,
		ev.Type(),
		string(eventData),
		ev.Timestamp,
		ev.URL,
		ev.UserAgent,
		ev.IPAddress,
		vw,
		vh,
	); err != nil {
		return 0, fmt.Errorf("failed to append event to batch: %w", err)
	}
	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}
	return ev.ID, nil
}

func (s *ClickHouseEventStore) List(ctx context.Context, f EventFilter) ([]models.InteractionEvent, error) {
	// Date bounds are applied in Go (via EventFilter.Matches) rather than
	// SQL so that unparseable stored timestamps behave exactly like the
	// file backend: excluded from ranged queries, present in unranged ones.
	query := `
		SELECT id, client_event_id, session_id, user_id, event_type,
		       event_data, timestamp_raw, url, user_agent, ip_address,
		       viewport_width, viewport_height
		FROM clickstream_events
	`
	var args []any
	if f.UserID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, f.UserID)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clickstream events: %w", err)
	}
	defer rows.Close()

	var results []models.InteractionEvent
	for rows.Next() {
		var (
			ev        models.InteractionEvent
			eventData string
			vw, vh    int32
		)
		if err := rows.Scan(
			&ev.ID, &ev.ClientEventID, &ev.SessionID, &ev.UserID,
			&ev.EventType, &eventData, &ev.Timestamp, &ev.URL,
			&ev.UserAgent, &ev.IPAddress, &vw, &vh,
		); err != nil {
			s.log.WithError(err).Warn("skipping unreadable clickstream row")
			continue
		}
		ev.Action = ev.EventType
		if eventData != "" {
			if err := json.Unmarshal([]byte(eventData), &ev.EventData); err != nil {
				s.log.WithError(err).WithField("id", ev.ID).Warn("unreadable event data")
			}
			ev.Details = ev.EventData
		}
		if vw != 0 || vh != 0 {
			ev.Viewport = &models.Viewport{Width: int(vw), Height: int(vh)}
		}
		if f.Matches(&ev) {
			results = append(results, ev)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during clickstream query: %w", err)
	}
	if results == nil {
		results = []models.InteractionEvent{}
	}
	return results, nil
}

func (s *ClickHouseEventStore) ListByUser(ctx context.Context, userID string) ([]models.InteractionEvent, error) {
	events, err := s.List(ctx, EventFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	SortByTimestampDesc(events)
	return events, nil
}

func (s *ClickHouseEventStore) Count(ctx context.Context) (int, error) {
	var count uint64
	row := s.DB.Conn.QueryRow(ctx, `SELECT count() FROM clickstream_events`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count clickstream events: %w", err)
	}
	return int(count), nil
}
