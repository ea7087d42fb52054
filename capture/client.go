// Package capture is the client-side half of the clickstream pipeline: it
// builds interaction events, delivers them to the ingestion endpoint, and
// keeps undelivered events in a local durable queue so no tracked action is
// silently lost. Delivery failures are never surfaced to the user of the
// application being tracked.
package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"learnscope/api/models"
)

const defaultDeliveryTimeout = 10 * time.Second

// User identifies the person behind the session. Events track Username
// when set, else ID, else the anonymous sentinel.
type User struct {
	ID       string
	Username string
}

// Options configures a capture Client.
type Options struct {
	// Endpoint is the API base URL, e.g. http://localhost:8080.
	Endpoint string
	// QueuePath is the file backing the local retry queue.
	QueuePath string
	// HTTPClient defaults to one with a bounded timeout so a hung
	// delivery can never block the retry pass indefinitely.
	HTTPClient *http.Client
	PageURL    string
	UserAgent  string
	Viewport   models.Viewport
	Logger     *logrus.Logger
}

// Client captures interaction events for one page session. Construct one
// instance at application start and thread it through explicitly; there is
// no package-level mutable state.
type Client struct {
	endpoint  string
	http      *http.Client
	queue     *RetryQueue
	log       *logrus.Logger
	pageURL   string
	userAgent string
	viewport  models.Viewport
	sessionID string

	mu     sync.Mutex
	userID string
}

// New creates a Client with a fresh session id. The session id embeds its
// creation time and a random suffix and is never regenerated for the life
// of the client.
func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultDeliveryTimeout}
	}
	return &Client{
		endpoint:  opts.Endpoint,
		http:      httpClient,
		queue:     NewRetryQueue(opts.QueuePath, log),
		log:       log,
		pageURL:   opts.PageURL,
		userAgent: opts.UserAgent,
		viewport:  opts.Viewport,
		sessionID: newSessionID(),
		userID:    models.AnonymousUser,
	}
}

func newSessionID() string {
	return fmt.Sprintf("sess_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// SessionID returns the session id bound to this client.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Initialize emits the synthetic session_start event and binds a user
// identity to all subsequent events. Call once per page session.
// session_start itself is attributed to the pre-login identity.
func (c *Client) Initialize(ctx context.Context, user User) {
	c.TrackEvent(ctx, "session_start", map[string]any{
		"viewportWidth":  c.viewport.Width,
		"viewportHeight": c.viewport.Height,
		"userAgent":      c.userAgent,
	})

	identity := models.AnonymousUser
	switch {
	case user.Username != "":
		identity = user.Username
	case user.ID != "":
		identity = user.ID
	}

	c.mu.Lock()
	c.userID = identity
	c.mu.Unlock()
}

// TrackEvent builds and delivers one event, returning the server-assigned
// id. On any delivery failure the event is appended to the local retry
// queue and a zero id is returned with no error; tracking failures are
// logged, never raised.
func (c *Client) TrackEvent(ctx context.Context, eventType string, eventData map[string]any) (int64, error) {
	ev := c.buildEvent(eventType, eventData)

	id, err := c.deliver(ctx, ev)
	if err != nil {
		c.log.WithError(err).WithField("eventType", eventType).Warn("event delivery failed, queued for retry")
		if qerr := c.queue.Enqueue(ev); qerr != nil {
			c.log.WithError(qerr).Error("failed to queue undelivered event")
		}
		return 0, nil
	}
	return id, nil
}

func (c *Client) buildEvent(eventType string, eventData map[string]any) models.InteractionEvent {
	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()

	viewport := c.viewport
	return models.InteractionEvent{
		ClientEventID: uuid.NewString(),
		SessionID:     c.sessionID,
		UserID:        userID,
		EventType:     eventType,
		Action:        eventType,
		EventData:     eventData,
		Details:       eventData,
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		URL:           c.pageURL,
		UserAgent:     c.userAgent,
		Viewport:      &viewport,
	}
}

type ingestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

func (c *Client) deliver(ctx context.Context, ev models.InteractionEvent) (int64, error) {
	payload, err := json.Marshal(&ev)
	if err != nil {
		return 0, fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/clickstream", bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("delivery rejected with status %d", resp.StatusCode)
	}

	var body ingestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode delivery response: %w", err)
	}
	return body.ID, nil
}

// RetryFailedEvents attempts delivery of every queued event concurrently.
// Only acknowledged events leave the queue; failures are re-queued for the
// next pass. Events carry a clientEventId, so a retry that raced a
// previously successful delivery is deduplicated server-side.
func (c *Client) RetryFailedEvents(ctx context.Context) {
	pending, err := c.queue.Take()
	if err != nil {
		c.log.WithError(err).Error("failed to read retry queue")
		return
	}
	if len(pending) == 0 {
		return
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []models.InteractionEvent
	)
	for _, ev := range pending {
		wg.Add(1)
		go func(ev models.InteractionEvent) {
			defer wg.Done()
			if _, err := c.deliver(ctx, ev); err != nil {
				mu.Lock()
				failed = append(failed, ev)
				mu.Unlock()
			}
		}(ev)
	}
	wg.Wait()

	if len(failed) > 0 {
		c.log.WithField("failed", len(failed)).Warn("some retried events were not delivered, re-queued")
		if err := c.queue.Requeue(failed); err != nil {
			c.log.WithError(err).Error("failed to re-queue undelivered events")
		}
	}
}
