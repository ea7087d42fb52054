package store

import (
	"context"
	"errors"

	"learnscope/api/models"
)

var ErrContentMissingFields = errors.New("content requires a title and a content type")

// ContentStore persists learning content records.
type ContentStore interface {
	List(ctx context.Context) ([]models.Content, error)
	Create(ctx context.Context, req models.CreateContentRequest) (*models.Content, error)
	Count(ctx context.Context) (int, error)
}
