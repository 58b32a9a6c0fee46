package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"taskdesk-cli/internal/model"
)

// SaveIdentity caches the signed-in user for baseURL.
func (s *Store) SaveIdentity(ctx context.Context, baseURL string, u model.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO identity(base_url, user_json, saved_at_unix) VALUES(?, ?, ?)
		ON CONFLICT(base_url) DO UPDATE SET user_json = excluded.user_json, saved_at_unix = excluded.saved_at_unix;`,
		identityKey(baseURL), string(b), time.Now().Unix())
	return err
}

// LoadIdentity returns the cached user for baseURL. ok is false when nothing is cached; an
// unreadable row counts as nothing cached.
func (s *Store) LoadIdentity(ctx context.Context, baseURL string) (u model.User, ok bool, err error) {
	var raw string
	err = s.db.QueryRowContext(ctx, `SELECT user_json FROM identity WHERE base_url = ?;`, identityKey(baseURL)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return model.User{}, false, nil
	}
	return u, true, nil
}

// ForgetIdentity drops the cached user for baseURL.
func (s *Store) ForgetIdentity(ctx context.Context, baseURL string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM identity WHERE base_url = ?;`, identityKey(baseURL))
	return err
}

func identityKey(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}
