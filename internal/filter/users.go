package filter

import (
	"strings"

	"taskdesk-cli/internal/model"
)

// DefaultPerPage is the user-management page size.
const DefaultPerPage = 10

// Users returns users whose username or email contains query, case-insensitively.
func Users(us []model.User, query string) []model.User {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.User, 0, len(us))
	for _, u := range us {
		if q == "" || strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out
}

// Page returns the zero-based page of xs and the number of pages (at least 1).
// Out-of-range pages are empty.
func Page[T any](xs []T, page, perPage int) ([]T, int) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	pages := (len(xs) + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	if page < 0 {
		return []T{}, pages
	}
	start := page * perPage
	if start >= len(xs) {
		return []T{}, pages
	}
	end := start + perPage
	if end > len(xs) {
		end = len(xs)
	}
	return xs[start:end], pages
}
