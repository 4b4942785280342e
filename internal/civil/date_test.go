package civil

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-10-20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year != 2025 || d.Month != time.October || d.Day != 20 {
		t.Errorf("unexpected date %+v", d)
	}
	if d.String() != "2025-10-20" {
		t.Errorf("expected 2025-10-20, got %s", d)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "2025-02-30", "20-10-2025", "2025-10-20T10:00:00Z", "tomorrow"} {
		if _, err := ParseDate(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestScan(t *testing.T) {
	cases := []struct {
		name string
		src  any
	}{
		{"time", time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)},
		{"string", "2025-10-20"},
		{"bytes", []byte("2025-10-20")},
		{"timestamp text", "2025-10-20 00:00:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var d Date
			if err := d.Scan(tc.src); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.String() != "2025-10-20" {
				t.Errorf("expected 2025-10-20, got %s", d)
			}
		})
	}

	var d Date
	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}

func TestJSON(t *testing.T) {
	d := Date{Year: 2025, Month: time.January, Day: 5}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2025-01-05"` {
		t.Errorf("unexpected JSON %s", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != d {
		t.Errorf("expected %v, got %v", d, back)
	}
}
