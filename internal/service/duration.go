package service

import "github.com/noah-isme/lms-recur/internal/models"

const secondsPerDay = 86400

// DurationSeconds converts a human-entered quantity/unit pair into seconds.
// Months average out to 365.25/12 days. An unrecognised unit deliberately
// falls back to the years multiplier; this permissive default matches the
// settings form contract, where the unit select never produces other
// values. No validation happens here: quantity may be zero or negative and
// callers own any domain checks.
func DurationSeconds(qty int, unit models.DurationUnit) int64 {
	var days float64
	switch unit {
	case models.UnitDays:
		days = 1
	case models.UnitWeeks:
		days = 7
	case models.UnitMonths:
		days = 365.25 / 12
	default:
		days = 365.25
	}

	return int64(float64(qty) * days * secondsPerDay)
}
