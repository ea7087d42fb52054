package capture_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnscope/api/capture"
	"learnscope/api/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

// recordingServer acknowledges every event and remembers what it saw.
type recordingServer struct {
	mu     sync.Mutex
	events []models.InteractionEvent
	nextID int64
}

func (s *recordingServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev models.InteractionEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.nextID++
		id := s.nextID
		s.events = append(s.events, ev)
		s.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "Event recorded", "id": id})
	})
}

func (s *recordingServer) seen() []models.InteractionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.InteractionEvent(nil), s.events...)
}

func newClient(t *testing.T, endpoint string) *capture.Client {
	t.Helper()
	return capture.New(capture.Options{
		Endpoint:  endpoint,
		QueuePath: filepath.Join(t.TempDir(), "queue.json"),
		PageURL:   "http://localhost:3000/dashboard",
		UserAgent: "test-agent",
		Viewport:  models.Viewport{Width: 1280, Height: 720},
		Logger:    quietLogger(),
	})
}

func TestTrackEventDeliversAndReturnsServerID(t *testing.T) {
	srv := &recordingServer{}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	c := newClient(t, ts.URL)
	id, err := c.TrackPageView(context.Background(), "home")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	events := srv.seen()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "page_view", ev.EventType)
	assert.Equal(t, "page_view", ev.Action)
	assert.Equal(t, models.AnonymousUser, ev.UserID)
	assert.Equal(t, c.SessionID(), ev.SessionID)
	assert.True(t, strings.HasPrefix(ev.SessionID, "sess_"))
	assert.NotEmpty(t, ev.ClientEventID)
	assert.NotEmpty(t, ev.Timestamp)
	assert.Equal(t, "test-agent", ev.UserAgent)
	require.NotNil(t, ev.Viewport)
	assert.Equal(t, 1280, ev.Viewport.Width)
}

func TestInitializeEmitsSessionStartThenBindsUser(t *testing.T) {
	srv := &recordingServer{}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	c := newClient(t, ts.URL)
	ctx := context.Background()
	c.Initialize(ctx, capture.User{Username: "alice"})
	_, err := c.TrackPageView(ctx, "home")
	require.NoError(t, err)

	events := srv.seen()
	require.Len(t, events, 2)
	assert.Equal(t, "session_start", events[0].EventType)
	// session_start goes out under the pre-login identity; the user binds
	// to subsequent events only.
	assert.Equal(t, models.AnonymousUser, events[0].UserID)
	assert.Equal(t, "alice", events[1].UserID)
}

func TestDeliveryFailureQueuesSilently(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	queuePath := filepath.Join(t.TempDir(), "queue.json")
	c := capture.New(capture.Options{Endpoint: ts.URL, QueuePath: queuePath, Logger: quietLogger()})

	// No error reaches the caller; the event lands in the retry queue.
	id, err := c.TrackPageView(context.Background(), "home")
	require.NoError(t, err)
	assert.Zero(t, id)

	q := capture.NewRetryQueue(queuePath, quietLogger())
	assert.Equal(t, 1, q.Len())
}

func TestRetryFailedEventsKeepsOnlyUnacknowledged(t *testing.T) {
	// Acknowledge course_view deliveries, reject everything else.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev models.InteractionEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if ev.EventType != "course_view" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "id": int64(1)})
	}))
	defer ts.Close()

	queuePath := filepath.Join(t.TempDir(), "queue.json")
	log := quietLogger()
	q := capture.NewRetryQueue(queuePath, log)
	require.NoError(t, q.Enqueue(models.InteractionEvent{SessionID: "s1", EventType: "course_view"}))
	require.NoError(t, q.Enqueue(models.InteractionEvent{SessionID: "s1", EventType: "page_view"}))

	c := capture.New(capture.Options{Endpoint: ts.URL, QueuePath: queuePath, Logger: log})
	c.RetryFailedEvents(context.Background())

	// Only the rejected event stays queued for the next pass.
	remaining, err := q.Take()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "page_view", remaining[0].EventType)
}
