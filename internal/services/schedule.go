package services

import (
	"fmt"
	"math"
	"time"

	"factura/internal/models"
)

// NextDate advances start by the given number of billing cycles.
// occurrences == 0 returns start unchanged, which callers use to offset a due
// date from an issue date. Month arithmetic follows time.AddDate, so Jan 31 +
// one month normalizes forward instead of clamping to end of month.
func NextDate(start time.Time, frequency models.Frequency, occurrences int) (time.Time, error) {
	var next time.Time
	switch frequency {
	case models.FrequencyDaily:
		next = start.AddDate(0, 0, occurrences)
	case models.FrequencyWeekly:
		next = start.AddDate(0, 0, occurrences*7)
	case models.FrequencyMonthly:
		next = start.AddDate(0, occurrences, 0)
	case models.FrequencyYearly:
		next = start.AddDate(occurrences, 0, 0)
	default:
		return time.Time{}, fmt.Errorf("invalid frequency: %s", frequency)
	}
	return next, nil
}

// DaysUntil returns the whole days between now and the target's midnight,
// rounded up. Positive means the target is in the future, zero means today,
// negative means overdue. The target is read in now's location first so a
// UTC-stored date and a zoned clock land in the same day bucket.
func DaysUntil(target, now time.Time) int {
	t := target.In(now.Location())
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
	return int(math.Ceil(midnight.Sub(now).Hours() / 24))
}
