package record

import (
	"fmt"
	"regexp"
	"time"
)

// dateLayout is the external wire format: zero-padded DD-MM-YYYY.
const dateLayout = "02-01-2006"

var datePattern = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)

// Date is a calendar date carried externally as DD-MM-YYYY. The zero value
// is "no date".
type Date struct {
	t time.Time
}

// ParseDate parses a strict DD-MM-YYYY string. The pattern check rejects
// alternate separators and short digit runs before time.Parse enforces
// calendar validity (31-02-2024 fails).
func ParseDate(s string) (Date, error) {
	if !datePattern.MatchString(s) {
		return Date{}, fmt.Errorf("invalid date %q: expected DD-MM-YYYY", s)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// Time returns the date as a midnight-UTC time value.
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d falls on a later calendar day than other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// Equal reports calendar equality.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Weekday returns the calendar weekday.
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// String renders the DD-MM-YYYY wire format.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

// MarshalJSON encodes the date as its wire format string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a DD-MM-YYYY string; empty means unset.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date JSON: %s", s)
	}
	s = s[1 : len(s)-1]
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
