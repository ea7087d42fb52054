package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnscope/api/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func openTestEventStore(t *testing.T) (*FileEventStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clickstream.jsonl")
	s, err := OpenFileEventStore(path, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func testEvent(userID, eventType, ts string) models.InteractionEvent {
	return models.InteractionEvent{
		SessionID: "sess_1750000000000_ab12cd34",
		UserID:    userID,
		EventType: eventType,
		Action:    eventType,
		Timestamp: ts,
	}
}

func TestAppendThenListInOrder(t *testing.T) {
	s, _ := openTestEventStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		ev := testEvent("alice", "page_view", "2025-06-15T10:00:00Z")
		ev.EventData = map[string]any{"page": fmt.Sprintf("p%d", i)}
		id, err := s.Append(ctx, ev)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	events, err := s.List(ctx, EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 5)

	for i, ev := range events {
		// Each append appears exactly once, in append order.
		assert.Equal(t, ids[i], ev.ID)
		assert.Equal(t, fmt.Sprintf("p%d", i), ev.EventData["page"])
	}
}

func TestAppendAssignsUniqueIncreasingIDs(t *testing.T) {
	s, _ := openTestEventStore(t)
	ctx := context.Background()

	var prev int64
	for i := 0; i < 10; i++ {
		id, err := s.Append(ctx, testEvent("alice", "page_view", "2025-06-15T10:00:00Z"))
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	s, _ := openTestEventStore(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Append(ctx, testEvent("alice", "page_view", "2025-06-15T10:00:00Z"))
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]struct{})
	for id := range ids {
		_, dup := seen[id]
		assert.False(t, dup, "id %d assigned twice", id)
		seen[id] = struct{}{}
	}

	events, err := s.List(ctx, EventFilter{})
	require.NoError(t, err)
	assert.Len(t, events, n)
}

func TestAppendDeduplicatesOnClientEventID(t *testing.T) {
	s, _ := openTestEventStore(t)
	ctx := context.Background()

	ev := testEvent("alice", "course_view", "2025-06-15T10:00:00Z")
	ev.ClientEventID = "11111111-2222-3333-4444-555555555555"

	first, err := s.Append(ctx, ev)
	require.NoError(t, err)

	// Retried delivery of the same client event returns the original id
	// and does not create a second record.
	second, err := s.Append(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListFiltersAreConjunctive(t *testing.T) {
	s, _ := openTestEventStore(t)
	ctx := context.Background()

	mk := func(user, page, ts string) models.InteractionEvent {
		ev := testEvent(user, "page_view", ts)
		ev.EventData = map[string]any{"page": page}
		return ev
	}
	all := []models.InteractionEvent{
		mk("alice", "home", "2025-06-10T10:00:00Z"),
		mk("alice", "courses", "2025-06-12T10:00:00Z"),
		mk("bob", "home", "2025-06-12T10:00:00Z"),
		mk("alice", "home", "2025-06-20T10:00:00Z"),
	}
	for _, ev := range all {
		_, err := s.Append(ctx, ev)
		require.NoError(t, err)
	}

	start := mustParse(t, "2025-06-09T00:00:00Z")
	end := mustParse(t, "2025-06-14T00:00:00Z")
	events, err := s.List(ctx, EventFilter{UserID: "alice", Page: "home", Start: &start, End: &end})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "alice", events[0].UserID)
	assert.Equal(t, "home", events[0].EventData["page"])
	assert.Equal(t, "2025-06-10T10:00:00Z", events[0].Timestamp)

	// Every filtered result set is a subset of the unfiltered one.
	unfiltered, err := s.List(ctx, EventFilter{})
	require.NoError(t, err)
	assert.Len(t, unfiltered, len(all))
}

func TestDateBoundsAreInclusive(t *testing.T) {
	s, _ := openTestEventStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, testEvent("alice", "page_view", "2025-06-15T10:00:00Z"))
	require.NoError(t, err)

	exact := mustParse(t, "2025-06-15T10:00:00Z")
	events, err := s.List(ctx, EventFilter{Start: &exact, End: &exact})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestUnparseableTimestampExcludedFromRangedQueriesOnly(t *testing.T) {
	s, _ := openTestEventStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, testEvent("alice", "page_view", "not-a-date"))
	require.NoError(t, err)
	_, err = s.Append(ctx, testEvent("alice", "page_view", "2025-06-15T10:00:00Z"))
	require.NoError(t, err)

	start := mustParse(t, "2025-06-01T00:00:00Z")
	ranged, err := s.List(ctx, EventFilter{Start: &start})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "2025-06-15T10:00:00Z", ranged[0].Timestamp)

	unranged, err := s.List(ctx, EventFilter{})
	require.NoError(t, err)
	assert.Len(t, unranged, 2)
}

func TestListByUserSortsNewestFirst(t *testing.T) {
	s, _ := openTestEventStore(t)
	ctx := context.Background()

	for _, ts := range []string{
		"2025-06-12T10:00:00Z",
		"2025-06-15T10:00:00Z",
		"garbage",
		"2025-06-13T10:00:00Z",
	} {
		_, err := s.Append(ctx, testEvent("alice", "page_view", ts))
		require.NoError(t, err)
	}
	_, err := s.Append(ctx, testEvent("bob", "page_view", "2025-06-16T10:00:00Z"))
	require.NoError(t, err)

	events, err := s.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, events, 4)

	assert.Equal(t, "2025-06-15T10:00:00Z", events[0].Timestamp)
	assert.Equal(t, "2025-06-13T10:00:00Z", events[1].Timestamp)
	assert.Equal(t, "2025-06-12T10:00:00Z", events[2].Timestamp)
	// Unparseable timestamps sort last.
	assert.Equal(t, "garbage", events[3].Timestamp)
}

func TestReopenReplaysLogAndKeepsIDsMonotonic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clickstream.jsonl")
	s, err := OpenFileEventStore(path, testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	id1, err := s.Append(ctx, testEvent("alice", "page_view", "2025-06-15T10:00:00Z"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := OpenFileEventStore(path, testLogger())
	require.NoError(t, err)
	defer reopened.Close()

	events, err := reopened.List(ctx, EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id1, events[0].ID)

	id2, err := reopened.Append(ctx, testEvent("alice", "page_view", "2025-06-15T11:00:00Z"))
	require.NoError(t, err)
	assert.Greater(t, id2, id1)
}

func TestCorruptLogFailsClosedToParsedPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clickstream.jsonl")
	good := `{"id":1,"sessionId":"s1","userId":"alice","eventType":"page_view","timestamp":"2025-06-15T10:00:00Z"}`
	require.NoError(t, os.WriteFile(path, []byte(good+"\n{{{not json\n"), 0o644))

	s, err := OpenFileEventStore(path, testLogger())
	require.NoError(t, err)
	defer s.Close()

	events, err := s.List(context.Background(), EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(1), events[0].ID)
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, ok := models.ParseTimestamp(s)
	require.True(t, ok)
	return parsed
}
