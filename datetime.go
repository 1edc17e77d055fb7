package tomlspanner

import "fmt"

// DateTimeKind distinguishes the four datetime shapes TOML 1.1 permits.
type DateTimeKind uint8

const (
	OffsetDateTimeKind DateTimeKind = iota
	LocalDateTimeKind
	LocalDateKind
	LocalTimeKind
)

// Date is a calendar date. Component ranges are validated at parse time
// (months 1-12, days per month including leap years).
type Date struct {
	Year  uint16
	Month uint8
	Day   uint8
}

// Time is a time of day with nanosecond precision.
type Time struct {
	Hour, Minute, Second uint8
	Nanos                uint32
}

// OffsetKind distinguishes a UTC ("Z") offset from an explicit +/-HH:MM
// offset.
type OffsetKind uint8

const (
	OffsetZ OffsetKind = iota
	OffsetPlus
	OffsetMinus
)

// Offset is a UTC offset: either Z, or a signed (hour, minute) pair.
type Offset struct {
	Kind          OffsetKind
	Hour, Minute  uint8
}

// DateTime is an algebraic value over the four TOML 1.1 datetime shapes.
// Only the fields relevant to Kind are meaningful.
type DateTime struct {
	Kind   DateTimeKind
	Date   Date
	Time   Time
	Offset Offset
}

// String renders the datetime in its canonical TOML form.
func (dt DateTime) String() string {
	switch dt.Kind {
	case LocalDateKind:
		return fmt.Sprintf("%04d-%02d-%02d", dt.Date.Year, dt.Date.Month, dt.Date.Day)
	case LocalTimeKind:
		return formatTime(dt.Time)
	case LocalDateTimeKind:
		return fmt.Sprintf("%04d-%02d-%02dT%s",
			dt.Date.Year, dt.Date.Month, dt.Date.Day, formatTime(dt.Time))
	case OffsetDateTimeKind:
		base := fmt.Sprintf("%04d-%02d-%02dT%s",
			dt.Date.Year, dt.Date.Month, dt.Date.Day, formatTime(dt.Time))
		switch dt.Offset.Kind {
		case OffsetZ:
			return base + "Z"
		case OffsetPlus:
			return fmt.Sprintf("%s+%02d:%02d", base, dt.Offset.Hour, dt.Offset.Minute)
		default:
			return fmt.Sprintf("%s-%02d:%02d", base, dt.Offset.Hour, dt.Offset.Minute)
		}
	default:
		return "<invalid datetime>"
	}
}

func formatTime(t Time) string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Nanos != 0 {
		s += fmt.Sprintf(".%09d", t.Nanos)
		for len(s) > 0 && s[len(s)-1] == '0' {
			s = s[:len(s)-1]
		}
	}
	return s
}

var daysInMonthTable = [...]uint8{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func isLeapYear(y uint16) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// daysInMonth returns the number of days in the given month (1-12) of
// year y, accounting for leap years.
func daysInMonth(y uint16, m uint8) uint8 {
	if m == 2 && isLeapYear(y) {
		return 29
	}
	if m < 1 || m > 12 {
		return 0
	}
	return daysInMonthTable[m]
}

// validateDate reports whether d's components are in range for a real
// calendar date.
func validateDate(d Date) bool {
	if d.Month < 1 || d.Month > 12 {
		return false
	}
	if d.Day < 1 || d.Day > daysInMonth(d.Year, d.Month) {
		return false
	}
	return true
}

// validateTime reports whether t's components are in range. Second may be
// 60 to permit a leap second, per RFC 3339.
func validateTime(t Time) bool {
	return t.Hour <= 23 && t.Minute <= 59 && t.Second <= 60 && t.Nanos < 1_000_000_000
}

// validateOffset reports whether o's components are in range.
func validateOffset(o Offset) bool {
	if o.Kind == OffsetZ {
		return true
	}
	return o.Hour <= 23 && o.Minute <= 59
}
