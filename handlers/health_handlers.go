package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"learnscope/api/store"
)

type HealthHandlers struct {
	Users   store.UserStore
	Content store.ContentStore
	Events  store.EventStore
	Log     *logrus.Logger
}

func NewHealthHandlers(users store.UserStore, content store.ContentStore, events store.EventStore, log *logrus.Logger) *HealthHandlers {
	return &HealthHandlers{Users: users, Content: content, Events: events, Log: log}
}

// Check reports liveness plus per-collection record counts. A store that
// cannot be counted reports zero rather than failing the probe.
func (h *HealthHandlers) Check(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.Users.Count(ctx)
	if err != nil {
		h.Log.WithError(err).Warn("user count unavailable")
	}
	content, err := h.Content.Count(ctx)
	if err != nil {
		h.Log.WithError(err).Warn("content count unavailable")
	}
	clickstream, err := h.Events.Count(ctx)
	if err != nil {
		h.Log.WithError(err).Warn("clickstream count unavailable")
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Learning platform API is running",
		"stats": gin.H{
			"users":       users,
			"content":     content,
			"clickstream": clickstream,
		},
	})
}
