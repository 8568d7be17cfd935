package ingest

import "testing"

func TestParseDateHourParsesValidTimestamp(t *testing.T) {
	year, month, day, hour, err := parseDateHour("2024031714")
	if err != nil {
		t.Fatalf("parseDateHour: %v", err)
	}
	if year != 2024 || month != 3 || day != 17 || hour != 14 {
		t.Errorf("got %d-%d-%d %dh, want 2024-03-17 14h", year, month, day, hour)
	}
}

func TestParseDateHourRejectsWrongLength(t *testing.T) {
	if _, _, _, _, err := parseDateHour("202403171"); err == nil {
		t.Error("expected an error for a 9-digit timestamp")
	}
	if _, _, _, _, err := parseDateHour("20240317140"); err == nil {
		t.Error("expected an error for an 11-digit timestamp")
	}
}

func TestParseDateHourRejectsOutOfRangeComponents(t *testing.T) {
	cases := []string{
		"2024001314", // month 00
		"2024133114", // month 13
		"2024031024", // hour 24
		"2024030024", // day 00
	}
	for _, s := range cases {
		if _, _, _, _, err := parseDateHour(s); err == nil {
			t.Errorf("expected an error for out-of-range timestamp %q", s)
		}
	}
}

func TestParseDateHourRejectsNonDigits(t *testing.T) {
	if _, _, _, _, err := parseDateHour("2024AB1714"); err == nil {
		t.Error("expected an error for a non-numeric component")
	}
}
