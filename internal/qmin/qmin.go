// Package qmin implements seasonal minimum-discharge requirements.
package qmin

import (
	"fmt"
	"time"
)

// referenceYear is used only to compute ordinal day-of-year for period
// matching; periods are defined by month/day and recur every year, so any
// reference year works as long as it's used consistently. The original
// simulator hardcodes 2000, a leap year, so 29 February is a valid period
// boundary.
const referenceYear = 2000

// Period is a single seasonal minimum-discharge requirement, active from
// (StartMonth, StartDay) through (EndMonth, EndDay) inclusive, both ends in
// the same reference year (no wraparound across New Year's in a single
// period — model two periods if a requirement spans the year boundary).
type Period struct {
	StartMonth, StartDay int
	EndMonth, EndDay     int
	MinDischargeM3s      float64
	PenaltyCostPerHour    float64
}

// Schedule is an ordered set of up to five non-overlapping periods.
type Schedule struct {
	periods []Period
}

// NewSchedule validates and wraps a set of periods. Periods are matched in
// the order given, first match wins, so overlapping periods are legal but
// order-sensitive; the original restricts to 5 periods and no overlap by
// convention rather than enforcement, which this keeps.
func NewSchedule(periods []Period) (*Schedule, error) {
	if len(periods) > 5 {
		return nil, fmt.Errorf("qmin: at most 5 periods supported, got %d", len(periods))
	}
	for i, p := range periods {
		if _, err := ordinal(p.StartMonth, p.StartDay); err != nil {
			return nil, fmt.Errorf("qmin: period %d start date: %w", i, err)
		}
		if _, err := ordinal(p.EndMonth, p.EndDay); err != nil {
			return nil, fmt.Errorf("qmin: period %d end date: %w", i, err)
		}
	}
	return &Schedule{periods: append([]Period(nil), periods...)}, nil
}

// Required returns the minimum discharge and penalty-per-hour active on the
// given calendar month/day. Returns (0, 0) if no period matches.
func (s *Schedule) Required(month, day int) (minDischargeM3s, penaltyPerHour float64) {
	if s == nil {
		return 0, 0
	}
	qd, err := ordinal(month, day)
	if err != nil {
		return 0, 0
	}
	for _, p := range s.periods {
		start, errA := ordinal(p.StartMonth, p.StartDay)
		end, errB := ordinal(p.EndMonth, p.EndDay)
		if errA != nil || errB != nil {
			continue
		}
		if qd >= start && qd <= end {
			return p.MinDischargeM3s, p.PenaltyCostPerHour
		}
	}
	return 0, 0
}

// Periods returns a copy of the schedule's periods, used by report writers
// and presets serialization.
func (s *Schedule) Periods() []Period {
	if s == nil {
		return nil
	}
	return append([]Period(nil), s.periods...)
}

func ordinal(month, day int) (int, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("month %d out of range", month)
	}
	t := time.Date(referenceYear, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := t.AddDate(0, 1, -1).Day()
	if day < 1 || day > last {
		return 0, fmt.Errorf("day %d out of range for month %d", day, month)
	}
	return time.Date(referenceYear, time.Month(month), day, 0, 0, 0, 0, time.UTC).YearDay(), nil
}
