package postgres

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("обычная ошибка")))
	assert.False(t, IsTransient(context.Canceled))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(syscall.ECONNREFUSED))
	assert.True(t, IsTransient(syscall.ECONNRESET))

	// Ошибки соединения (класс 08) и исчерпание пула — временные
	assert.True(t, IsTransient(&pgconn.PgError{Code: "08006"}))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "53300"}))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "40P01"}))

	// Нарушение уникальности — бизнес-ошибка, повторять бессмысленно
	assert.False(t, IsTransient(&pgconn.PgError{Code: "23505"}))
}

func TestWithRetry_SucceedsAfterTransient(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 3, time.Millisecond, "test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "08006"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 3, time.Millisecond, "test", func(ctx context.Context) error {
		calls++
		return &pgconn.PgError{Code: "08006"}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_NoRetryOnBusinessError(t *testing.T) {
	calls := 0
	boom := errors.New("duplicate")
	err := WithRetry(context.Background(), 3, time.Millisecond, "test", func(ctx context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ContextCancelStopsWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, 5, time.Minute, "test", func(ctx context.Context) error {
		return &pgconn.PgError{Code: "08006"}
	})
	require.ErrorIs(t, err, context.Canceled)
}
