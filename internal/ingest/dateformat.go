package ingest

import (
	"fmt"
	"strconv"
)

// parseDateHour decodes the fixed-width YYYYMMDDHH timestamp used by every
// price/inflow/action row. The original rejects any date string whose
// length isn't exactly 10 as a fatal parse error; this keeps that same
// strictness as an ordinary returned error instead.
func parseDateHour(s string) (year, month, day, hour int, err error) {
	if len(s) != 10 {
		return 0, 0, 0, 0, fmt.Errorf("ingest: date %q must be exactly 10 digits (YYYYMMDDHH)", s)
	}
	year, err = strconv.Atoi(s[0:4])
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("ingest: date %q: bad year: %w", s, err)
	}
	month, err = strconv.Atoi(s[4:6])
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("ingest: date %q: bad month: %w", s, err)
	}
	day, err = strconv.Atoi(s[6:8])
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("ingest: date %q: bad day: %w", s, err)
	}
	hour, err = strconv.Atoi(s[8:10])
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("ingest: date %q: bad hour: %w", s, err)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour < 0 || hour > 23 {
		return 0, 0, 0, 0, fmt.Errorf("ingest: date %q: component out of range", s)
	}
	return year, month, day, hour, nil
}
