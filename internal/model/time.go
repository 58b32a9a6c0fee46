package model

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Time is a timestamp as exchanged with the backend.
//
// The backend emits naive ISO-8601 values (no zone, optional microseconds) which are UTC.
// Browsers and other clients may send RFC 3339 or plain dates, so decoding accepts all of them.
type Time struct {
	time.Time
}

// WireLayout is the layout used when encoding timestamps.
const WireLayout = "2006-01-02T15:04:05"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	WireLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

func NewTime(t time.Time) Time { return Time{Time: t.UTC()} }

// TimePtr is a convenience for optional timestamps.
func TimePtr(t time.Time) *Time {
	v := NewTime(t)
	return &v
}

// ParseTime parses any of the accepted wire formats. Values without a zone are UTC.
func ParseTime(s string) (Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Time{Time: t.UTC()}, nil
		}
	}
	return Time{}, fmt.Errorf("invalid timestamp: %q", s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.UTC().Format(WireLayout))), nil
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*t = Time{}
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*t = Time{}
		return nil
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Std returns the wrapped time or nil for an absent value.
func (t *Time) Std() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
