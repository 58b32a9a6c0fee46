package store

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Jar is an http.CookieJar whose cookies are also written to the state database, so the
// backend session outlives the process. Session cookies (no expiry) are persisted too.
type Jar struct {
	store *Store

	mu  sync.Mutex
	mem *cookiejar.Jar
	now func() time.Time
}

var _ http.CookieJar = (*Jar)(nil)

// Jar loads the persisted, unexpired cookies into a fresh in-memory jar.
func (s *Store) Jar(ctx context.Context) (*Jar, error) {
	mem, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	j := &Jar{store: s, mem: mem, now: time.Now}
	if err := j.load(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Jar) load(ctx context.Context) error {
	now := j.now()
	if _, err := j.store.db.ExecContext(ctx,
		`DELETE FROM cookies WHERE expires_unix != 0 AND expires_unix <= ?;`, now.Unix()); err != nil {
		return err
	}
	rows, err := j.store.db.QueryContext(ctx,
		`SELECT host, name, path, domain, value, expires_unix, secure, http_only FROM cookies ORDER BY host;`)
	if err != nil {
		return err
	}
	defer rows.Close()

	byURL := map[string][]*http.Cookie{}
	urls := map[string]*url.URL{}
	for rows.Next() {
		var (
			host, name, path, domain, value string
			expires                         int64
			secure, httpOnly                bool
		)
		if err := rows.Scan(&host, &name, &path, &domain, &value, &expires, &secure, &httpOnly); err != nil {
			return err
		}
		c := &http.Cookie{Name: name, Value: value, Path: path, Domain: domain, Secure: secure, HttpOnly: httpOnly}
		if expires != 0 {
			c.Expires = time.Unix(expires, 0)
		}
		scheme := "http"
		if secure {
			scheme = "https"
		}
		key := scheme + "://" + host
		if _, ok := urls[key]; !ok {
			urls[key] = &url.URL{Scheme: scheme, Host: host, Path: "/"}
		}
		byURL[key] = append(byURL[key], c)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for key, cs := range byURL {
		j.mem.SetCookies(urls[key], cs)
	}
	return nil
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.mem.Cookies(u)
}

// SetCookies implements http.CookieJar. Persistence failures are logged; the in-memory jar
// stays authoritative for the running process.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	j.mem.SetCookies(u, cookies)
	j.mu.Unlock()

	ctx := context.Background()
	for _, c := range cookies {
		if err := j.persist(ctx, u, c); err != nil {
			j.store.log.Warn("persist cookie", zap.String("host", u.Host), zap.String("name", c.Name), zap.Error(err))
		}
	}
}

func (j *Jar) persist(ctx context.Context, u *url.URL, c *http.Cookie) error {
	path := c.Path
	if path == "" || path[0] != '/' {
		path = defaultPath(u.Path)
	}
	var expires int64
	switch {
	case c.MaxAge < 0:
		expires = -1
	case c.MaxAge > 0:
		expires = j.now().Add(time.Duration(c.MaxAge) * time.Second).Unix()
	case !c.Expires.IsZero():
		expires = c.Expires.Unix()
	}
	if expires < 0 || (expires != 0 && expires <= j.now().Unix()) {
		_, err := j.store.db.ExecContext(ctx,
			`DELETE FROM cookies WHERE host = ? AND name = ? AND path = ?;`, u.Host, c.Name, path)
		return err
	}
	_, err := j.store.db.ExecContext(ctx, `
		INSERT INTO cookies(host, name, path, domain, value, expires_unix, secure, http_only)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(host, name, path) DO UPDATE SET
			domain = excluded.domain,
			value = excluded.value,
			expires_unix = excluded.expires_unix,
			secure = excluded.secure,
			http_only = excluded.http_only;`,
		u.Host, c.Name, path, c.Domain, c.Value, expires, c.Secure, c.HttpOnly)
	return err
}

// Clear drops every cookie from memory and from the database.
func (j *Jar) Clear(ctx context.Context) error {
	mem, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.mem = mem
	j.mu.Unlock()
	_, err = j.store.db.ExecContext(ctx, `DELETE FROM cookies;`)
	return err
}

// defaultPath is the cookie default-path of a request path (RFC 6265 section 5.1.4).
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}
