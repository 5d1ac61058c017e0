// ABOUTME: Timestamp normalizer for the heterogeneous encodings exporters emit.
// ABOUTME: Tries RFC 3339, bare ISO 8601, then a strict date-time fallback.
package timeparse

import (
	"fmt"
	"strings"
	"time"
)

// layouts tried in order after RFC 3339 fails. The bare ISO forms cover
// exporters that strip the offset; the final layout is the strict
// "YYYY-MM-DD HH:MM:SS" shape Apple Health uses once its trailing offset
// fragment is removed.
var layouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Parse converts a date-time string into an instant. Inputs with a Z or
// numeric offset parse via RFC 3339; offset-free inputs parse in the local
// zone. Trailing " -0800" / " +00:00" fragments are stripped before the
// strict fallback so Apple Health export strings survive.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("parse timestamp: empty string")
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	clean := stripOffset(s)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, clean, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("parse timestamp %q: unrecognized format", s)
}

// ParseDate parses a bare YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: use YYYY-MM-DD", s)
	}
	return t, nil
}

// stripOffset removes a trailing timezone fragment (" -0800", " +00:00", "Z")
// so the offset-free layouts can match.
func stripOffset(s string) string {
	s = strings.TrimSuffix(s, "Z")
	// An offset fragment is separated from the time by a space or follows
	// the seconds directly: find the last +/- after the date portion.
	for _, sep := range []string{" -", " +"} {
		if i := strings.LastIndex(s, sep); i > 0 {
			return strings.TrimSpace(s[:i])
		}
	}
	// Offsets glued to the time, e.g. "2025-01-15T14:30:25+00:00".
	if i := strings.LastIndexAny(s, "+"); i > 10 {
		return s[:i]
	}
	if i := strings.LastIndex(s, "-"); i > 10 && strings.ContainsAny(s[i:], ":") {
		return s[:i]
	}
	return s
}
