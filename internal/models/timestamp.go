package models

import (
	"encoding/json"
	"strings"
	"time"
)

type timestampLayout struct {
	layout   string
	floating bool // no zone in the text
}

var timestampLayouts = []timestampLayout{
	{layout: time.RFC3339Nano},
	{layout: time.RFC3339},
	{layout: "2006-01-02T15:04:05.999999999-07"},
	{layout: "2006-01-02T15:04:05.999999999", floating: true},
	{layout: "2006-01-02 15:04:05.999999999-07:00"},
	{layout: "2006-01-02 15:04:05.999999999Z07:00"},
	{layout: "2006-01-02 15:04:05.999999999-07"},
	{layout: "2006-01-02 15:04:05.999999999", floating: true},
	{layout: "2006-01-02"},
}

// Timestamp is an optional point in time decoded from the API. A floating
// timestamp carried no zone; its wall clock belongs to whatever zone it is
// viewed in.
type Timestamp struct {
	Time     time.Time
	Valid    bool
	Floating bool
}

// NewTimestamp wraps t as a present timestamp
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, Valid: true}
}

// ParseTimestamp accepts RFC 3339 and the usual SQL layouts, including the
// hour-only offsets Postgres prints. A date-only value is midnight UTC.
// Unparseable or empty input yields an absent timestamp.
func ParseTimestamp(raw string) Timestamp {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Timestamp{}
	}
	for _, l := range timestampLayouts {
		if t, err := time.Parse(l.layout, raw); err == nil {
			return Timestamp{Time: t, Valid: true, Floating: l.floating}
		}
	}
	return Timestamp{}
}

// At resolves the timestamp as seen from loc
func (ts Timestamp) At(loc *time.Location) time.Time {
	if !ts.Floating || loc == nil {
		return ts.Time
	}
	t := ts.Time
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// UnmarshalJSON accepts a string, a unix-millisecond number or null
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	*ts = Timestamp{}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case string:
		*ts = ParseTimestamp(x)
	case float64:
		*ts = NewTimestamp(time.UnixMilli(int64(x)))
	}
	return nil
}

// MarshalJSON writes RFC 3339 or null
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339Nano))
}

// String returns the RFC 3339 form, or "" when absent
func (ts Timestamp) String() string {
	if !ts.Valid {
		return ""
	}
	return ts.Time.Format(time.RFC3339Nano)
}

// Localized formats the timestamp for display in loc. Absent timestamps
// render as placeholder.
func (ts Timestamp) Localized(loc *time.Location, placeholder string) string {
	if !ts.Valid {
		return placeholder
	}
	if loc == nil {
		loc = time.Local
	}
	return ts.At(loc).In(loc).Format("1/2/2006, 3:04:05 PM")
}
