package core

import (
	"testing"
	"time"
)

func TestParseCellDate(t *testing.T) {
	loc := Location()
	cases := []struct {
		in   string
		want time.Time
	}{
		{"15.03.2025", time.Date(2025, time.March, 15, 0, 0, 0, 0, loc)},
		{"15/03/2025", time.Date(2025, time.March, 15, 0, 0, 0, 0, loc)},
		{"15-03-2025", time.Date(2025, time.March, 15, 0, 0, 0, 0, loc)},
		{"15.03.25", time.Date(2025, time.March, 15, 0, 0, 0, 0, loc)},
		{"15.03.2025 14:30", time.Date(2025, time.March, 15, 14, 30, 0, 0, loc)},
		{"2025-03-15", time.Date(2025, time.March, 15, 0, 0, 0, 0, loc)},
		// Excel serial for 2025-01-21 in the 1900 date system.
		{"45678", time.Date(2025, time.January, 21, 0, 0, 0, 0, loc)},
		{"45678.5", time.Date(2025, time.January, 21, 12, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseCellDate(tc.in)
			if err != nil {
				t.Fatalf("ParseCellDate(%q): %v", tc.in, err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("ParseCellDate(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseCellDateSameDay(t *testing.T) {
	// Dotted, slashed and serial forms of the same day must normalize
	// identically.
	a, err := ParseCellDate("21.01.2025")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseCellDate("21/01/2025")
	if err != nil {
		t.Fatal(err)
	}
	c, err := ParseCellDate("45678")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) || !a.Equal(c) {
		t.Errorf("formats diverge: %v, %v, %v", a, b, c)
	}
}

func TestParseCellDateInvalid(t *testing.T) {
	for _, in := range []string{"", "garbage", "32.01.2025", "15.13.2025", "15.03", "-5", "15.03.2025 25:00", "150000", "999999"} {
		if _, err := ParseCellDate(in); err == nil {
			t.Errorf("ParseCellDate(%q): expected error", in)
		}
	}
}
