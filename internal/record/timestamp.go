package record

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// DocumentLayout is the export document timestamp format
// (ISO 8601, UTC, millisecond precision).
const DocumentLayout = "2006-01-02T15:04:05.000Z"

// Clock supplies wall-clock time for append stamping.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Millis truncates t to millisecond precision in UTC.
func Millis(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// FromUnixMilli converts stored epoch milliseconds back to a UTC time.
func FromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FormatTimestamp renders t in DocumentLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(DocumentLayout)
}

// Epoch milliseconds DocumentLayout can render with a four-digit year.
var (
	minDocumentMillis = time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	maxDocumentMillis = time.Date(9999, time.December, 31, 23, 59, 59, 999_000_000, time.UTC).UnixMilli()
)

// Layouts accepted for string timestamps, tried in order.
// Zone-less layouts are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp coerces a raw JSON timestamp into a time.
// Strings are parsed against the accepted layouts; numbers are epoch
// milliseconds. ok is false when the value is absent or unparseable, or
// when a number falls outside the years DocumentLayout can represent.
func ParseTimestamp(raw json.RawMessage) (t time.Time, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, false
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, false
		}
		return parseTimestampString(s)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return time.Time{}, false
	}
	if ms, err := n.Int64(); err == nil {
		if ms < minDocumentMillis || ms > maxDocumentMillis {
			return time.Time{}, false
		}
		return FromUnixMilli(ms), true
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	// Range check before the int64 conversion, which overflows silently.
	if f < float64(minDocumentMillis) || f > float64(maxDocumentMillis) {
		return time.Time{}, false
	}
	return FromUnixMilli(int64(f)), true
}

func parseTimestampString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Millis(t), true
		}
	}
	return time.Time{}, false
}
