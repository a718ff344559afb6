package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnparsableDate is returned when a cell value matches no supported
// date format.
var ErrUnparsableDate = fmt.Errorf("unparsable date")

// excelEpoch is day zero of the 1900 date system (serial 1 = 1900-01-01,
// with the fictitious 1900 leap day already absorbed).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseCellDate normalizes the date formats found in imported spreadsheet
// cells into one time.Time in the canonical timezone:
//
//   - Excel serial numbers ("45678", "45678.25")
//   - RFC3339 / ISO timestamps
//   - day-first "dd.mm.yyyy", "dd/mm/yyyy", "dd-mm-yyyy"
//   - two-digit years, read as 20xx
//   - an optional trailing "HH:MM"
//
// Ambiguous day/month cells are read day-first.
func ParseCellDate(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}, fmt.Errorf("%w: empty cell", ErrUnparsableDate)
	}

	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		return fromExcelSerial(serial)
	}

	if t, err := time.Parse(time.RFC3339, cell); err == nil {
		return t.In(Location()), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", cell, Location()); err == nil {
		return t, nil
	}

	datePart := cell
	var hour, minute int
	if fields := strings.Fields(cell); len(fields) == 2 {
		h, m, ok := parseClock(fields[1])
		if !ok {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableDate, cell)
		}
		datePart, hour, minute = fields[0], h, m
	}

	day, month, year, err := parseDayFirst(datePart)
	if err != nil {
		return time.Time{}, err
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, Location())
	// time.Date normalizes out-of-range components; reject them instead.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableDate, cell)
	}
	return t, nil
}

func fromExcelSerial(serial float64) (time.Time, error) {
	// 80000 is the year 2119; anything beyond that is a typo, not a date.
	if serial <= 0 || serial > 80000 {
		return time.Time{}, fmt.Errorf("%w: serial %v out of range", ErrUnparsableDate, serial)
	}
	days := int(serial)
	frac := time.Duration((serial - float64(days)) * 24 * float64(time.Hour))
	t := excelEpoch.AddDate(0, 0, days).Add(frac)
	loc := Location()
	// Serials carry no timezone; re-anchor the wall clock in the canonical one.
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

func parseDayFirst(s string) (day, month, year int, err error) {
	var sep string
	for _, cand := range []string{".", "/", "-"} {
		if strings.Contains(s, cand) {
			sep = cand
			break
		}
	}
	if sep == "" {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrUnparsableDate, s)
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrUnparsableDate, s)
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrUnparsableDate, s)
	}
	if year < 100 {
		year += 2000
	}
	if day < 1 || day > 31 || month < 1 || month > 12 || year < 1900 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrUnparsableDate, s)
	}
	return day, month, year, nil
}

func parseClock(s string) (hour, minute int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
