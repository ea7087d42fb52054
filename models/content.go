package models

import "time"

// Content is one learning item; ContentType is "text", "video" or "quiz".
// Data carries type-specific attributes (quiz questions, video URL, body
// text) and is additive-only, there is no schema migration.
type Content struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	ContentType string         `json:"contentType"`
	Description string         `json:"description,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type CreateContentRequest struct {
	Title       string         `json:"title" binding:"required"`
	ContentType string         `json:"contentType" binding:"required"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data"`
}
