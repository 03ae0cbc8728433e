package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateNextCheck(t *testing.T) {
	assert.Equal(t, "2025-03-18", CalculateNextCheck("2024-01-15", 1, 2, 3))
	assert.Equal(t, "2024-07-15", CalculateNextCheck("2024-01-15", 0, 6, 0))
	// переполнение месяца переносится, как у Date.setMonth
	assert.Equal(t, "2024-03-02", CalculateNextCheck("2024-01-31", 0, 1, 0))
	assert.Equal(t, "", CalculateNextCheck("2024-01-15", 0, 0, 0))
	assert.Equal(t, "", CalculateNextCheck("", 1, 0, 0))
	assert.Equal(t, "", CalculateNextCheck("15.01.2024", 1, 0, 0))
}

func TestPeriodToDays(t *testing.T) {
	assert.Equal(t, 428, PeriodToDays(1, 2, 3))
	assert.Equal(t, 0, PeriodToDays(0, 0, 0))
}

func TestDDay(t *testing.T) {
	today := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)

	d, ok := DDay("2024-03-10", today)
	assert.True(t, ok)
	assert.Equal(t, 9, d)

	d, ok = DDay("2024-02-20", today)
	assert.True(t, ok)
	assert.Equal(t, -10, d)

	d, ok = DDay("2024-03-01", today)
	assert.True(t, ok)
	assert.Equal(t, 0, d)

	_, ok = DDay("", today)
	assert.False(t, ok)
}
