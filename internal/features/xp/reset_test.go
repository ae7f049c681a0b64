package xp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNeedsReset_NeverReset(t *testing.T) {
	assert.True(t, NeedsReset(nil, "UTC", time.Now()))
}

func TestNeedsReset_SameDay(t *testing.T) {
	last := date(2026, time.March, 14)
	now := time.Date(2026, time.March, 14, 23, 50, 0, 0, time.UTC)

	assert.False(t, NeedsReset(&last, "UTC", now))
}

func TestNeedsReset_NextDay(t *testing.T) {
	last := date(2026, time.March, 14)
	now := time.Date(2026, time.March, 15, 0, 1, 0, 0, time.UTC)

	assert.True(t, NeedsReset(&last, "UTC", now))
}

func TestNeedsReset_TimezoneShiftsMidnight(t *testing.T) {
	last := date(2026, time.March, 14)
	// 23:30 UTC 14-го — в Москве уже 02:30 15-го.
	now := time.Date(2026, time.March, 14, 23, 30, 0, 0, time.UTC)

	assert.True(t, NeedsReset(&last, "Europe/Moscow", now))
	assert.False(t, NeedsReset(&last, "UTC", now))
}

func TestNeedsReset_BadTimezoneFallsBackToUTC(t *testing.T) {
	last := date(2026, time.March, 14)
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	assert.False(t, NeedsReset(&last, "Narnia/Lantern", now))
}
