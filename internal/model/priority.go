package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists the valid priorities in ordinal order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// PriorityFromOrdinal maps 1..3 to Low..High. Unknown ordinals fall back to Medium,
// matching how the backend treats them.
func PriorityFromOrdinal(n int) Priority {
	switch n {
	case 1:
		return PriorityLow
	case 2:
		return PriorityMedium
	case 3:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Ordinal returns 1..3, or 0 for an invalid priority.
func (p Priority) Ordinal() int {
	for i, v := range Priorities {
		if v == p {
			return i + 1
		}
	}
	return 0
}

func (p Priority) Valid() bool { return p.Ordinal() != 0 }

// ParsePriority accepts names case-insensitively and ordinals ("1".."3").
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "1", "2", "3":
		return PriorityFromOrdinal(int(s[0] - '0')), nil
	}
	for _, p := range Priorities {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid priority: %q (want Low, Medium or High)", s)
}

// UnmarshalJSON accepts either the name or the numeric ordinal.
func (p *Priority) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] != '"' {
		var n int
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("priority: %w", err)
		}
		*p = PriorityFromOrdinal(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*p = Priority(s)
	return nil
}
