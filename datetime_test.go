package tomlspanner

import "testing"

func TestIsLeapYear(t *testing.T) {
	cases := map[uint16]bool{
		2000: true,
		1900: false,
		2023: false,
		2024: true,
	}
	for y, want := range cases {
		if got := isLeapYear(y); got != want {
			t.Errorf("isLeapYear(%d) = %v; want %v", y, got, want)
		}
	}
}

func TestDaysInMonthLeapFebruary(t *testing.T) {
	if got := daysInMonth(2024, 2); got != 29 {
		t.Errorf("daysInMonth(2024, 2) = %d; want 29", got)
	}
	if got := daysInMonth(2023, 2); got != 28 {
		t.Errorf("daysInMonth(2023, 2) = %d; want 28", got)
	}
}

func TestValidateTimeAllowsLeapSecond(t *testing.T) {
	if !validateTime(Time{Hour: 23, Minute: 59, Second: 60}) {
		t.Error("validateTime should accept a leap second (second == 60)")
	}
	if validateTime(Time{Hour: 23, Minute: 59, Second: 61}) {
		t.Error("validateTime should reject second == 61")
	}
	if validateTime(Time{Hour: 24, Minute: 0, Second: 0}) {
		t.Error("validateTime should reject hour == 24")
	}
}

func TestValidateOffsetZIgnoresHourMinute(t *testing.T) {
	if !validateOffset(Offset{Kind: OffsetZ, Hour: 99, Minute: 99}) {
		t.Error("an OffsetZ offset should always validate regardless of hour/minute")
	}
	if !validateOffset(Offset{Kind: OffsetPlus, Hour: 23, Minute: 59}) {
		t.Error("OffsetPlus 23:59 should be valid")
	}
	if validateOffset(Offset{Kind: OffsetMinus, Hour: 24, Minute: 0}) {
		t.Error("OffsetMinus with hour 24 should be invalid")
	}
}

func TestDateTimeStringRendersEachKind(t *testing.T) {
	cases := []struct {
		dt   DateTime
		want string
	}{
		{
			dt:   DateTime{Kind: LocalDateKind, Date: Date{Year: 2024, Month: 2, Day: 29}},
			want: "2024-02-29",
		},
		{
			dt:   DateTime{Kind: LocalTimeKind, Time: Time{Hour: 7, Minute: 30, Second: 0}},
			want: "07:30:00",
		},
		{
			dt: DateTime{
				Kind: LocalDateTimeKind,
				Date: Date{Year: 1999, Month: 12, Day: 31},
				Time: Time{Hour: 23, Minute: 59, Second: 59},
			},
			want: "1999-12-31T23:59:59",
		},
		{
			dt: DateTime{
				Kind:   OffsetDateTimeKind,
				Date:   Date{Year: 2000, Month: 1, Day: 1},
				Time:   Time{Hour: 0, Minute: 0, Second: 0},
				Offset: Offset{Kind: OffsetZ},
			},
			want: "2000-01-01T00:00:00Z",
		},
		{
			dt: DateTime{
				Kind:   OffsetDateTimeKind,
				Date:   Date{Year: 2000, Month: 1, Day: 1},
				Time:   Time{Hour: 12, Minute: 0, Second: 0},
				Offset: Offset{Kind: OffsetMinus, Hour: 5, Minute: 30},
			},
			want: "2000-01-01T12:00:00-05:30",
		},
	}
	for _, c := range cases {
		if got := c.dt.String(); got != c.want {
			t.Errorf("String() = %q; want %q", got, c.want)
		}
	}
}

func TestDateTimeStringTrimsTrailingFractionZeros(t *testing.T) {
	dt := DateTime{Kind: LocalTimeKind, Time: Time{Hour: 1, Minute: 2, Second: 3, Nanos: 500_000_000}}
	if got, want := dt.String(), "01:02:03.5"; got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
}

func TestParseOffsetDateTime(t *testing.T) {
	root, arena := parseOK(t, "d = 1979-05-27T07:32:00Z\n")
	item, _ := root.Get("d")
	dt, ok := item.AsDateTime(arena)
	if !ok || dt.Kind != OffsetDateTimeKind {
		t.Fatalf("AsDateTime: %+v, %v; want OffsetDateTimeKind", dt, ok)
	}
	if dt.Date != (Date{Year: 1979, Month: 5, Day: 27}) {
		t.Errorf("Date = %+v", dt.Date)
	}
	if dt.Time != (Time{Hour: 7, Minute: 32, Second: 0}) {
		t.Errorf("Time = %+v", dt.Time)
	}
}

func TestParseOffsetDateTimeWithExplicitOffset(t *testing.T) {
	root, arena := parseOK(t, "d = 1979-05-27T00:32:00-07:00\n")
	item, _ := root.Get("d")
	dt, _ := item.AsDateTime(arena)
	if dt.Offset.Kind != OffsetMinus || dt.Offset.Hour != 7 || dt.Offset.Minute != 0 {
		t.Errorf("Offset = %+v", dt.Offset)
	}
}

func TestParseLocalDateTimeFractionalSeconds(t *testing.T) {
	root, arena := parseOK(t, "d = 1979-05-27T07:32:00.999999\n")
	item, _ := root.Get("d")
	dt, ok := item.AsDateTime(arena)
	if !ok || dt.Kind != LocalDateTimeKind {
		t.Fatalf("AsDateTime: %+v, %v; want LocalDateTimeKind", dt, ok)
	}
	if dt.Time.Nanos != 999999000 {
		t.Errorf("Nanos = %d; want 999999000", dt.Time.Nanos)
	}
}

func TestParseLocalDateMissingTimeDefaultsAreNotApplied(t *testing.T) {
	root, arena := parseOK(t, "d = 1979-05-27\n")
	item, _ := root.Get("d")
	dt, ok := item.AsDateTime(arena)
	if !ok || dt.Kind != LocalDateKind {
		t.Fatalf("AsDateTime: %+v, %v; want LocalDateKind", dt, ok)
	}
}

func TestParseLocalTimeDefaultsSecondsToZero(t *testing.T) {
	root, arena := parseOK(t, "d = 07:32\n")
	item, _ := root.Get("d")
	dt, ok := item.AsDateTime(arena)
	if !ok || dt.Kind != LocalTimeKind {
		t.Fatalf("AsDateTime: %+v, %v; want LocalTimeKind", dt, ok)
	}
	if dt.Time.Second != 0 {
		t.Errorf("Second = %d; want 0 when omitted", dt.Time.Second)
	}
}

func TestParseInvalidOffsetHourRejected(t *testing.T) {
	a := NewArena()
	_, err := Parse([]byte("d = 1979-05-27T07:32:00+24:00\n"), a)
	if err == nil {
		t.Fatal("expected an error for an out-of-range offset hour")
	}
	e, ok := err.(*Error)
	if !ok || e.Kind != ErrInvalidDatetime {
		t.Fatalf("err = %v; want ErrInvalidDatetime", err)
	}
}

func TestParseInvalidMonthRejected(t *testing.T) {
	a := NewArena()
	_, err := Parse([]byte("d = 1979-13-01\n"), a)
	if err == nil {
		t.Fatal("expected an error for month 13")
	}
	e, _ := err.(*Error)
	if e.Kind != ErrInvalidDatetime {
		t.Fatalf("Kind = %v; want ErrInvalidDatetime", e.Kind)
	}
}

func TestParseLeapSecondAccepted(t *testing.T) {
	root, arena := parseOK(t, "d = 1990-12-31T23:59:60Z\n")
	item, _ := root.Get("d")
	dt, ok := item.AsDateTime(arena)
	if !ok {
		t.Fatal("leap second datetime should parse")
	}
	if dt.Time.Second != 60 {
		t.Errorf("Second = %d; want 60", dt.Time.Second)
	}
}
