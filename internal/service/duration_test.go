package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/lms-recur/internal/models"
)

func TestDurationSeconds(t *testing.T) {
	cases := []struct {
		name string
		qty  int
		unit models.DurationUnit
		want int64
	}{
		{"one day", 1, models.UnitDays, 86400},
		{"ten days", 10, models.UnitDays, 864000},
		{"one week", 1, models.UnitWeeks, 7 * 86400},
		{"one month", 1, models.UnitMonths, int64(365.25 / 12 * 86400)},
		{"one year", 1, models.UnitYears, int64(365.25 * 86400)},
		{"zero quantity", 0, models.UnitWeeks, 0},
		{"unknown unit falls back to years", 2, models.DurationUnit("fortnights"), int64(2 * 365.25 * 86400)},
		{"empty unit falls back to years", 1, models.DurationUnit(""), int64(365.25 * 86400)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DurationSeconds(tc.qty, tc.unit))
		})
	}
}

func TestDurationSecondsLinearity(t *testing.T) {
	for qty := 1; qty <= 5; qty++ {
		assert.Equal(t, int64(qty)*DurationSeconds(1, models.UnitDays), DurationSeconds(qty, models.UnitDays))
	}
	assert.Equal(t, 7*DurationSeconds(1, models.UnitDays), DurationSeconds(1, models.UnitWeeks))
	assert.Equal(t, 12*DurationSeconds(1, models.UnitMonths), DurationSeconds(1, models.UnitYears))
}
