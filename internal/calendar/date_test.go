package calendar

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Year != 2024 || d.Month != time.June || d.Day != 10 {
		t.Errorf("unexpected date: %+v", d)
	}
	if d.Weekday() != time.Monday {
		t.Errorf("2024-06-10 should be Monday, got %s", d.Weekday())
	}

	if _, err := ParseDate("10/06/2024"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestDateOfNormalizesTimestamps(t *testing.T) {
	karachi, err := time.LoadLocation("Asia/Karachi")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 23:30 local is already the next day in UTC; the calendar day must
	// follow the clock the client saw, not the UTC instant.
	local := time.Date(2024, 6, 10, 23, 30, 0, 0, karachi)
	if got := DateOf(local); got != NewDate(2024, time.June, 10) {
		t.Errorf("DateOf(%s) = %s", local, got)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, time.June, 15)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2024-06-15"` {
		t.Errorf("unexpected encoding: %s", data)
	}

	var decoded Date
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != d {
		t.Errorf("round trip mismatch: %s != %s", decoded, d)
	}

	if err := json.Unmarshal([]byte(`20240615`), &decoded); err == nil {
		t.Error("expected error for non-string date")
	}
}

func TestDateOrderingHelpers(t *testing.T) {
	a := NewDate(2024, time.June, 10)
	b := a.AddDays(5)

	if !a.Before(b) || b.Before(a) {
		t.Error("Before misordered")
	}
	if !b.After(a) {
		t.Error("After misordered")
	}
	if b.String() != "2024-06-15" {
		t.Errorf("AddDays produced %s", b)
	}
	if a.AddDays(21).Month != time.July {
		t.Error("AddDays should roll over month")
	}
}

func TestMinuteOfDay(t *testing.T) {
	cases := map[string]int{"00:00": 0, "09:00": 540, "14:30": 870, "23:59": 1439}
	for in, want := range cases {
		got, err := MinuteOfDay(in)
		if err != nil {
			t.Errorf("MinuteOfDay(%s): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("MinuteOfDay(%s) = %d, want %d", in, got, want)
		}
	}

	for _, in := range []string{"9:00", "24:00", "12:60", "noon", ""} {
		if _, err := MinuteOfDay(in); err == nil {
			t.Errorf("MinuteOfDay(%q) should fail", in)
		}
	}
}
