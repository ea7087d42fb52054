package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"learnscope/api/models"
	"learnscope/api/store"
)

type ContentHandlers struct {
	Content store.ContentStore
	Log     *logrus.Logger
}

func NewContentHandlers(content store.ContentStore, log *logrus.Logger) *ContentHandlers {
	return &ContentHandlers{Content: content, Log: log}
}

func (h *ContentHandlers) List(c *gin.Context) {
	items, err := h.Content.List(c.Request.Context())
	if err != nil {
		h.Log.WithError(err).Error("failed to list content")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve content"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "content": items})
}

func (h *ContentHandlers) Create(c *gin.Context) {
	var req models.CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Title and contentType are required"})
		return
	}

	item, err := h.Content.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, store.ErrContentMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Title and contentType are required"})
			return
		}
		h.Log.WithError(err).Error("failed to create content")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create content"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "content": item})
}
