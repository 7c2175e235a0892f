// Package month provides the calendar-month value type used throughout the
// forecasting core. Every tick, schedule row, and snapshot is keyed by a
// Month rather than a time.Time, so comparisons and arithmetic are exact
// and never depend on day-of-month or time zone.
package month

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Month is a calendar year+month pair. Month numbers run 1 (January)
// through 12 (December).
type Month struct {
	Year  int
	Month int
}

// New constructs a Month, normalizing an out-of-range month number the way
// time.Date does (e.g. New(2025, 13) == New(2026, 1)).
func New(year, m int) Month {
	year += (m - 1) / 12
	m = (m-1)%12 + 1
	if m <= 0 {
		m += 12
		year--
	}
	return Month{Year: year, Month: m}
}

// Add returns the month n months after m (n may be negative).
func (m Month) Add(n int) Month {
	return New(m.Year, m.Month+n)
}

// Compare returns -1, 0, or 1 as m is before, equal to, or after other.
func (m Month) Compare(other Month) int {
	switch {
	case m.Year != other.Year:
		if m.Year < other.Year {
			return -1
		}
		return 1
	case m.Month != other.Month:
		if m.Month < other.Month {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Before reports whether m occurs strictly before other.
func (m Month) Before(other Month) bool { return m.Compare(other) < 0 }

// After reports whether m occurs strictly after other.
func (m Month) After(other Month) bool { return m.Compare(other) > 0 }

// Equal reports whether m and other denote the same calendar month.
func (m Month) Equal(other Month) bool { return m.Compare(other) == 0 }

// InRange reports whether m falls within [start, end] inclusive. A zero-value
// end (Month{}) is treated as "open-ended" (no upper bound), matching the
// Recurring schedule row semantics in spec §4.4.
func (m Month) InRange(start, end Month) bool {
	if m.Before(start) {
		return false
	}
	if end == (Month{}) {
		return true
	}
	return !m.After(end)
}

// MonthsUntil returns the number of whole months from m to other (may be
// negative if other is before m).
func (m Month) MonthsUntil(other Month) int {
	return (other.Year-m.Year)*12 + (other.Month - m.Month)
}

// IsDecember reports whether this month is the last month of its year.
func (m Month) IsDecember() bool { return m.Month == 12 }

// January reports whether this month is the first month of its year.
func (m Month) January() bool { return m.Month == 1 }

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// Parse reads the "YYYY-MM" format produced by String. An empty string
// parses to the zero Month (config's "no end date" convention).
func Parse(s string) (Month, error) {
	if s == "" {
		return Month{}, nil
	}
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return Month{}, fmt.Errorf("month: invalid format %q, want YYYY-MM", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Month{}, fmt.Errorf("month: invalid year in %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return Month{}, fmt.Errorf("month: invalid month in %q: %w", s, err)
	}
	if m < 1 || m > 12 {
		return Month{}, fmt.Errorf("month: month number %d out of range in %q", m, s)
	}
	return Month{Year: year, Month: m}, nil
}

// UnmarshalYAML implements yaml.v3's Unmarshaler, reading the "YYYY-MM"
// scalar format so config files can write month values as plain strings.
func (m *Month) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalYAML implements yaml.v3's Marshaler, rendering the zero Month as
// an empty string rather than "0000-00".
func (m Month) MarshalYAML() (interface{}, error) {
	if m == (Month{}) {
		return "", nil
	}
	return m.String(), nil
}

// Range enumerates every month from Start to End inclusive.
type Range struct {
	Start Month
	End   Month
}

// Months returns every month in the range, ascending.
func (r Range) Months() []Month {
	if r.End.Before(r.Start) {
		return nil
	}
	n := r.Start.MonthsUntil(r.End) + 1
	out := make([]Month, 0, n)
	for cur := r.Start; !cur.After(r.End); cur = cur.Add(1) {
		out = append(out, cur)
	}
	return out
}
