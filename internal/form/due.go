package form

import (
	"fmt"
	"strings"
	"time"

	"taskdesk-cli/internal/model"
)

// ParseDue reads a due date typed by the user. A calendar date means the end of that day in
// local time, so a task due today is not already past; anything else must be a full timestamp.
func ParseDue(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return d.Add(24*time.Hour - time.Second), nil
	}
	t, err := model.ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q (expected YYYY-MM-DD or RFC 3339)", s)
	}
	return t.Time, nil
}
