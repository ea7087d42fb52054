// api/handlers/clickstream_handlers.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"learnscope/api/middleware"
	"learnscope/api/models"
	"learnscope/api/store"
)

type ClickstreamHandlers struct {
	Events store.EventStore
	Log    *logrus.Logger
}

func NewClickstreamHandlers(events store.EventStore, log *logrus.Logger) *ClickstreamHandlers {
	return &ClickstreamHandlers{Events: events, Log: log}
}

// Ingest accepts one event payload. Fields the client cannot supply
// trustworthily (ip, missing userAgent, missing timestamp) are filled
// server-side; everything else is defensively defaulted rather than
// rejected.
func (h *ClickstreamHandlers) Ingest(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	ev := normalizeEvent(payload)
	ev.IPAddress = c.ClientIP()
	if ev.UserAgent == "" {
		ev.UserAgent = c.Request.UserAgent()
	}
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	id, err := h.Events.Append(ctx, ev)
	if err != nil {
		h.Log.WithError(err).Error("failed to record clickstream event")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to record event"})
		return
	}

	middleware.CountEventIngested()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Event recorded", "id": id})
}

// Query returns the events matching the optional userId, page, startDate
// and endDate filters, combined conjunctively.
func (h *ClickstreamHandlers) Query(c *gin.Context) {
	filter := store.EventFilter{
		UserID: c.Query("userId"),
		Page:   c.Query("page"),
	}

	if raw := c.Query("startDate"); raw != "" {
		t, ok := models.ParseTimestamp(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid startDate, use ISO-8601"})
			return
		}
		filter.Start = &t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, ok := models.ParseTimestamp(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid endDate, use ISO-8601"})
			return
		}
		filter.End = &t
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	events, err := h.Events.List(ctx, filter)
	if err != nil {
		h.Log.WithError(err).Error("failed to query clickstream events")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve events"})
		return
	}
	if events == nil {
		events = []models.InteractionEvent{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": events, "count": len(events)})
}

// UserHistory returns one user's events, newest first.
func (h *ClickstreamHandlers) UserHistory(c *gin.Context) {
	userID := c.Param("userId")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	events, err := h.Events.ListByUser(ctx, userID)
	if err != nil {
		h.Log.WithError(err).WithField("userId", userID).Error("failed to query user history")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve user history"})
		return
	}
	if events == nil {
		events = []models.InteractionEvent{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"userId":       userID,
		"totalActions": len(events),
		"data":         events,
	})
}

// normalizeEvent builds a canonical event from a loosely-shaped payload:
// legacy aliases are synchronized both ways and identifiers are
// canonicalized to strings so read-time comparison never mixes types.
func normalizeEvent(payload map[string]any) models.InteractionEvent {
	ev := models.InteractionEvent{
		ClientEventID: stringValue(payload["clientEventId"]),
		SessionID:     models.CanonicalID(payload["sessionId"]),
		UserID:        models.CanonicalID(payload["userId"]),
		EventType:     stringValue(payload["eventType"]),
		Action:        stringValue(payload["action"]),
		Timestamp:     stringValue(payload["timestamp"]),
		URL:           stringValue(payload["url"]),
		UserAgent:     stringValue(payload["userAgent"]),
	}

	if ev.UserID == "" {
		ev.UserID = models.AnonymousUser
	}
	if ev.EventType == "" {
		ev.EventType = ev.Action
	}
	ev.Action = ev.EventType

	data := mapValue(payload["eventData"])
	if data == nil {
		data = mapValue(payload["details"])
	}
	ev.EventData = data
	ev.Details = data

	if vp := mapValue(payload["viewport"]); vp != nil {
		ev.Viewport = &models.Viewport{
			Width:  intValue(vp["width"]),
			Height: intValue(vp["height"]),
		}
	}
	return ev
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func mapValue(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func intValue(v any) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}
