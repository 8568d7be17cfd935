package qmin

import "testing"

func TestRequiredMatchesPeriod(t *testing.T) {
	s, err := NewSchedule([]Period{
		{StartMonth: 6, StartDay: 1, EndMonth: 8, EndDay: 31, MinDischargeM3s: 2.5, PenaltyCostPerHour: 100},
	})
	if err != nil {
		t.Fatal(err)
	}
	q, cost := s.Required(7, 15)
	if q != 2.5 || cost != 100 {
		t.Errorf("Required(7,15) = (%v, %v), want (2.5, 100)", q, cost)
	}
}

func TestRequiredOutsidePeriod(t *testing.T) {
	s, err := NewSchedule([]Period{
		{StartMonth: 6, StartDay: 1, EndMonth: 8, EndDay: 31, MinDischargeM3s: 2.5, PenaltyCostPerHour: 100},
	})
	if err != nil {
		t.Fatal(err)
	}
	q, cost := s.Required(1, 1)
	if q != 0 || cost != 0 {
		t.Errorf("Required(1,1) = (%v, %v), want (0, 0)", q, cost)
	}
}

func TestRequiredBoundaryInclusive(t *testing.T) {
	s, _ := NewSchedule([]Period{
		{StartMonth: 6, StartDay: 1, EndMonth: 6, EndDay: 1, MinDischargeM3s: 1, PenaltyCostPerHour: 10},
	})
	q, _ := s.Required(6, 1)
	if q != 1 {
		t.Errorf("Required(6,1) = %v, want 1 (single-day period inclusive)", q)
	}
}

func TestNilScheduleReturnsZero(t *testing.T) {
	var s *Schedule
	q, c := s.Required(1, 1)
	if q != 0 || c != 0 {
		t.Errorf("nil schedule should return (0,0), got (%v, %v)", q, c)
	}
}

func TestTooManyPeriodsRejected(t *testing.T) {
	periods := make([]Period, 6)
	for i := range periods {
		periods[i] = Period{StartMonth: 1, StartDay: 1, EndMonth: 1, EndDay: 2}
	}
	if _, err := NewSchedule(periods); err == nil {
		t.Fatal("expected error for >5 periods")
	}
}
