package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLUserStoreCreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "alice@example.com", []byte("hash")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), created))

	s := NewSQLUserStore(db)
	user, err := s.CreateUser(context.Background(), "alice", "alice@example.com", []byte("hash"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, created, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLUserStoreCreateUserDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "", []byte("hash")).
		WillReturnError(&pq.Error{Code: "23505"})

	s := NewSQLUserStore(db)
	_, err = s.CreateUser(context.Background(), "alice", "", []byte("hash"))
	assert.True(t, errors.Is(err, ErrUserExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLUserStoreGetUserByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "username", "email", "hashed_password", "created_at"}).
		AddRow(int64(7), "alice", "alice@example.com", []byte("hash"), created)
	mock.ExpectQuery(`SELECT id, username, email, hashed_password`).
		WithArgs("alice").
		WillReturnRows(rows)

	s := NewSQLUserStore(db)
	user, err := s.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash"), user.HashedPassword)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLUserStoreGetUserNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, email, hashed_password`).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	s := NewSQLUserStore(db)
	_, err = s.GetUserByUsername(context.Background(), "nobody")
	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
