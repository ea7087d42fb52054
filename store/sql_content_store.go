package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"learnscope/api/models"
)

// SQLContentStore is the Postgres-backed content table, for the `database`
// storage driver. The data column is JSONB.
type SQLContentStore struct {
	db *sql.DB
}

func NewSQLContentStore(db *sql.DB) *SQLContentStore {
	return &SQLContentStore{db: db}
}

func (s *SQLContentStore) List(ctx context.Context) ([]models.Content, error) {
	query := `
		SELECT id, title, content_type, description, data, created_at
		FROM content
		ORDER BY id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	defer rows.Close()

	items := []models.Content{}
	for rows.Next() {
		var (
			item models.Content
			data []byte
		)
		if err := rows.Scan(&item.ID, &item.Title, &item.ContentType, &item.Description, &data, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &item.Data); err != nil {
				return nil, fmt.Errorf("failed to decode content data: %w", err)
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error listing content: %w", err)
	}
	return items, nil
}

func (s *SQLContentStore) Create(ctx context.Context, req models.CreateContentRequest) (*models.Content, error) {
	if req.Title == "" || req.ContentType == "" {
		return nil, ErrContentMissingFields
	}

	var data []byte
	if req.Data != nil {
		var err error
		data, err = json.Marshal(req.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode content data: %w", err)
		}
	}

	item := &models.Content{
		Title:       req.Title,
		ContentType: req.ContentType,
		Description: req.Description,
		Data:        req.Data,
	}
	query := `
		INSERT INTO content (title, content_type, description, data)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at;
	`
	err := s.db.QueryRowContext(ctx, query, req.Title, req.ContentType, req.Description, nullableJSON(data)).Scan(
		&item.ID,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create content: %w", err)
	}
	return item, nil
}

func (s *SQLContentStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM content;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count content: %w", err)
	}
	return count, nil
}

func nullableJSON(data []byte) any {
	if len(data) == 0 {
		return sql.NullString{}
	}
	return string(data)
}
