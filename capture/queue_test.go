package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnscope/api/models"
)

func newTestQueue(t *testing.T) *RetryQueue {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return NewRetryQueue(filepath.Join(t.TempDir(), "queue.json"), log)
}

func queuedEvent(kind string) models.InteractionEvent {
	return models.InteractionEvent{
		SessionID: "s1",
		UserID:    "alice",
		EventType: kind,
		Timestamp: "2025-06-15T10:00:00Z",
	}
}

func TestQueueEnqueueTake(t *testing.T) {
	q := newTestQueue(t)

	require.NoError(t, q.Enqueue(queuedEvent("page_view")))
	require.NoError(t, q.Enqueue(queuedEvent("course_view")))
	assert.Equal(t, 2, q.Len())

	items, err := q.Take()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "page_view", items[0].EventType)
	assert.Equal(t, "course_view", items[1].EventType)

	// Take empties the queue.
	assert.Equal(t, 0, q.Len())
	items, err = q.Take()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestQueueRequeuePutsFailuresFirst(t *testing.T) {
	q := newTestQueue(t)

	require.NoError(t, q.Enqueue(queuedEvent("old")))
	taken, err := q.Take()
	require.NoError(t, err)

	// Something new arrives while the retry pass is in flight.
	require.NoError(t, q.Enqueue(queuedEvent("new")))
	require.NoError(t, q.Requeue(taken))

	items, err := q.Take()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "old", items[0].EventType)
	assert.Equal(t, "new", items[1].EventType)
}

func TestQueueCorruptFileReadsAsEmpty(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	path := filepath.Join(t.TempDir(), "queue.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	q := NewRetryQueue(path, log)
	assert.Equal(t, 0, q.Len())

	// Still usable after the corrupt read.
	require.NoError(t, q.Enqueue(queuedEvent("page_view")))
	assert.Equal(t, 1, q.Len())
}
