package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Weekday is a day token in canonical order, Sunday first.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// AllWeekdays returns the seven weekdays in canonical order (Sun..Sat).
func AllWeekdays() []Weekday {
	return []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}
}

// WeekdayNames returns the canonical day tokens.
func WeekdayNames() []string {
	return weekdayNames[:]
}

// WeekdayOf returns the weekday of t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday())
}

func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// ParseWeekday parses one of the canonical tokens. Matching is exact.
func ParseWeekday(s string) (Weekday, error) {
	for i, name := range weekdayNames {
		if name == s {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q (expected one of Sun, Mon, Tue, Wed, Thu, Fri, Sat)", s)
}

func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(d))
	}
	return []byte(weekdayNames[d]), nil
}

func (d *Weekday) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Days is a set of weekdays. Normalize before persisting.
type Days []Weekday

// ParseDays parses a list of day tokens into a normalized set.
func ParseDays(tokens []string) (Days, error) {
	days := make(Days, 0, len(tokens))
	for _, tok := range tokens {
		d, err := ParseWeekday(tok)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days.Normalize(), nil
}

func (ds Days) Has(d Weekday) bool {
	for _, x := range ds {
		if x == d {
			return true
		}
	}
	return false
}

// Normalize removes duplicates and sorts into canonical order.
func (ds Days) Normalize() Days {
	var seen [7]bool
	out := make(Days, 0, len(ds))
	for _, d := range ds {
		if !d.Valid() || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (ds Days) Strings() []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

// Completion holds one flag per weekday. All seven keys always exist.
type Completion [7]bool

func (c Completion) Get(d Weekday) bool {
	return c[d]
}

func (c *Completion) Set(d Weekday, done bool) {
	c[d] = done
}

// Map returns the completion as a token-keyed map, as stored by document stores.
func (c Completion) Map() map[string]bool {
	m := make(map[string]bool, 7)
	for i, name := range weekdayNames {
		m[name] = c[i]
	}
	return m
}

// CompletionFromMap builds a Completion from token keys. Missing keys are false.
func CompletionFromMap(m map[string]bool) (Completion, error) {
	var c Completion
	for k, v := range m {
		d, err := ParseWeekday(k)
		if err != nil {
			return c, err
		}
		c[d] = v
	}
	return c, nil
}

// MarshalJSON writes the flags as an object keyed Sun..Sat in canonical order.
func (c Completion) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range weekdayNames {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%t", name, c[i])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Completion) UnmarshalJSON(data []byte) error {
	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	parsed, err := CompletionFromMap(m)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
