package services

import (
	"testing"
	"time"

	"factura/internal/models"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDate_Daily(t *testing.T) {
	next, err := NextDate(date(2025, time.March, 10), models.FrequencyDaily, 5)
	assert.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 15), next)
}

func TestNextDate_Weekly(t *testing.T) {
	next, err := NextDate(date(2025, time.March, 10), models.FrequencyWeekly, 2)
	assert.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 24), next)
}

func TestNextDate_Monthly(t *testing.T) {
	next, err := NextDate(date(2025, time.January, 15), models.FrequencyMonthly, 3)
	assert.NoError(t, err)
	assert.Equal(t, date(2025, time.April, 15), next)
}

func TestNextDate_MonthlyEndOfMonthOverflow(t *testing.T) {
	// Jan 31 + 1 month lands on Mar 3 in a non-leap year; AddDate
	// normalizes the nonexistent Feb 31 instead of clamping.
	next, err := NextDate(date(2025, time.January, 31), models.FrequencyMonthly, 1)
	assert.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 3), next)
}

func TestNextDate_Yearly(t *testing.T) {
	next, err := NextDate(date(2024, time.February, 29), models.FrequencyYearly, 1)
	assert.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 1), next)
}

func TestNextDate_ZeroOccurrences(t *testing.T) {
	start := date(2025, time.June, 1)
	next, err := NextDate(start, models.FrequencyMonthly, 0)
	assert.NoError(t, err)
	assert.Equal(t, start, next)
}

func TestNextDate_InvalidFrequency(t *testing.T) {
	_, err := NextDate(date(2025, time.June, 1), models.Frequency("fortnightly"), 1)
	assert.Error(t, err)
}

func TestNextDate_InvalidFrequencyZeroOccurrences(t *testing.T) {
	// A bad frequency fails even when no cycles are being added.
	_, err := NextDate(date(2025, time.June, 1), models.Frequency("fortnightly"), 0)
	assert.Error(t, err)
}

func TestDaysUntil_FutureDate(t *testing.T) {
	now := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, 3, DaysUntil(date(2025, time.March, 13), now))
}

func TestDaysUntil_SameDayMidnight(t *testing.T) {
	// At exactly midnight of the target day the cycle counts as due today.
	now := date(2025, time.March, 13)
	assert.Equal(t, 0, DaysUntil(date(2025, time.March, 13), now))
}

func TestDaysUntil_LaterSameDay(t *testing.T) {
	// Ceiling rounding keeps a due date "today" for the whole calendar day
	// and counts tomorrow as one day out even late in the afternoon.
	now := time.Date(2025, time.March, 13, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysUntil(date(2025, time.March, 13), now))
	assert.Equal(t, 1, DaysUntil(date(2025, time.March, 14), now))
}

func TestDaysUntil_ZonedClockNearMidnight(t *testing.T) {
	// Due dates come out of Postgres in UTC while the clock may be zoned.
	// Reading the target in the clock's location keeps a due-tomorrow date
	// at one day out instead of two when the local day ends after UTC's.
	zone := time.FixedZone("UTC+1", 3600)
	now := time.Date(2025, time.March, 12, 23, 30, 0, 0, zone)
	target := date(2025, time.March, 13)

	assert.Equal(t, 1, DaysUntil(target, now))
	assert.Equal(t, 1, DaysUntil(target, now.UTC()))
}

func TestDaysUntil_PastDate(t *testing.T) {
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, -5, DaysUntil(date(2025, time.March, 5), now))
}
