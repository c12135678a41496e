package extension

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/growtools/backend/internal/cookie"
)

// MemoryJar is an in-memory CookieJar with browser-like domain matching.
// It is the default jar when no real browser is attached and the fake the
// injection protocol is tested against.
type MemoryJar struct {
	mu      sync.Mutex
	cookies map[jarKey]cookie.Native
}

type jarKey struct {
	name, domain, path string
}

// NewMemoryJar creates an empty in-memory cookie jar.
func NewMemoryJar() *MemoryJar {
	return &MemoryJar{cookies: make(map[jarKey]cookie.Native)}
}

// GetAll returns the cookies visible to the given URL: exact host match,
// or a dot-domain that is a suffix of the host.
func (j *MemoryJar) GetAll(_ context.Context, rawurl string) ([]cookie.Native, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	host := u.Hostname()

	j.mu.Lock()
	defer j.mu.Unlock()

	var out []cookie.Native
	for _, n := range j.cookies {
		if domainMatches(n.Domain, host) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Set stores a cookie scoped to the record's domain, falling back to the
// URL's host when the record carries none.
func (j *MemoryJar) Set(_ context.Context, rawurl string, rec cookie.Record) error {
	u, err := url.Parse(rawurl)
	if err != nil {
		return err
	}
	domain := rec.Domain
	if domain == "" {
		domain = u.Hostname()
	}
	path := rec.Path
	if path == "" {
		path = "/"
	}

	secure := rec.Secure
	n := cookie.Native{
		Name:     rec.Name,
		Value:    rec.Value,
		Domain:   domain,
		Path:     path,
		Secure:   &secure,
		HTTPOnly: rec.HTTPOnly,
		SameSite: strings.ToLower(string(rec.SameSite)),
		Session:  rec.Session(),
	}
	if rec.ExpirationDate != nil {
		n.ExpirationDate = *rec.ExpirationDate
	}

	j.mu.Lock()
	j.cookies[jarKey{rec.Name, domain, path}] = n
	j.mu.Unlock()
	return nil
}

// Remove deletes every cookie with the given name visible to the URL.
func (j *MemoryJar) Remove(_ context.Context, rawurl, name string) error {
	u, err := url.Parse(rawurl)
	if err != nil {
		return err
	}
	host := u.Hostname()

	j.mu.Lock()
	defer j.mu.Unlock()

	for k, n := range j.cookies {
		if k.name == name && domainMatches(n.Domain, host) {
			delete(j.cookies, k)
		}
	}
	return nil
}

// Len reports the number of stored cookies.
func (j *MemoryJar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies)
}

func domainMatches(cookieDomain, host string) bool {
	d := strings.TrimPrefix(cookieDomain, ".")
	if d == "" || host == "" {
		return false
	}
	return d == host || strings.HasSuffix(host, "."+d)
}

// MemoryTabs is an in-memory TabOpener recording every opened URL.
type MemoryTabs struct {
	mu     sync.Mutex
	Opened []string
}

// NewMemoryTabs creates an empty tab recorder.
func NewMemoryTabs() *MemoryTabs {
	return &MemoryTabs{}
}

// Open records the URL and returns a monotonically increasing tab id.
func (t *MemoryTabs) Open(_ context.Context, rawurl string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Opened = append(t.Opened, rawurl)
	return len(t.Opened), nil
}
