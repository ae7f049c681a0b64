// Package postgres — retry.go повторяет запросы к БД при временных сбоях.
// Повторяются ТОЛЬКО временные ошибки (обрыв соединения, исчерпание пула,
// дедлок): бизнес-ошибки и нарушения ограничений всплывают сразу.
// Повторы ограничены числом попыток — бесконечного цикла здесь нет.
package postgres

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

// SQLSTATE-коды, которые считаем временными.
// Класс 08 — ошибки соединения целиком.
var transientStates = map[string]bool{
	"53300": true, // too_many_connections
	"57P01": true, // admin_shutdown
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
}

// IsTransient сообщает, можно ли повторить операцию после этой ошибки.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	// Отмену контекста не повторяем: вызывающий уже ушёл
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
			return true
		}
		return transientStates[pgErr.Code]
	}

	if pgconn.SafeToRetry(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// WithRetry выполняет op, повторяя её при временных ошибках
// с экспоненциальной задержкой: baseWait, baseWait*2, baseWait*4, ...
//
// Параметры:
//   - attempts: максимум попыток (>= 1)
//   - baseWait: начальная задержка между попытками
//
// После исчерпания попыток возвращается последняя ошибка —
// вызывающий обязан сообщить пользователю о недоступности,
// а не молча съесть начисление.
func WithRetry(ctx context.Context, attempts int, baseWait time.Duration, name string, op func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	wait := baseWait
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		log.WithError(err).WithFields(log.Fields{
			"op":      name,
			"attempt": attempt,
			"max":     attempts,
			"wait":    wait.String(),
		}).Warn("Временная ошибка БД, повторяем")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}

	log.WithError(err).WithFields(log.Fields{
		"op":  name,
		"max": attempts,
	}).Error("БД недоступна, попытки исчерпаны")
	return err
}
