package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/kochabx/carelink/log"
)

// Jar is a cookie jar that can be emptied when the session ends.
type Jar interface {
	http.CookieJar
	Reset()
}

func newCookieJar() *cookiejar.Jar {
	// cookiejar.New never returns an error
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

// MemoryJar keeps cookies for the lifetime of the process.
type MemoryJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func NewMemoryJar() *MemoryJar {
	return &MemoryJar{jar: newCookieJar()}
}

func (j *MemoryJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *MemoryJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

func (j *MemoryJar) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar = newCookieJar()
}

type storedCookie struct {
	URL    string       `json:"url"`
	Cookie *http.Cookie `json:"cookie"`
}

// FileJar is a Jar persisted as JSON, so a command line tool keeps its
// session between invocations. Every change is written through.
type FileJar struct {
	mu      sync.Mutex
	path    string
	jar     *cookiejar.Jar
	entries map[string]storedCookie
	now     func() time.Time
}

// OpenFileJar loads path if it exists. Expired cookies are dropped.
func OpenFileJar(path string) (*FileJar, error) {
	j := &FileJar{
		path:    path,
		jar:     newCookieJar(),
		entries: make(map[string]storedCookie),
		now:     time.Now,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return j, nil
		}
		return nil, fmt.Errorf("failed to read cookie jar: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse cookie jar %s: %w", path, err)
	}
	for _, sc := range stored {
		if sc.Cookie == nil || j.expired(sc.Cookie) {
			continue
		}
		u, err := url.Parse(sc.URL)
		if err != nil {
			continue
		}
		j.jar.SetCookies(u, []*http.Cookie{sc.Cookie})
		j.entries[cookieKey(u, sc.Cookie)] = sc
	}
	return j, nil
}

func (j *FileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)

	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}).String()
	for _, c := range cookies {
		key := cookieKey(u, c)
		if c.MaxAge < 0 || (c.MaxAge == 0 && !c.Expires.IsZero() && j.expired(c)) {
			delete(j.entries, key)
			continue
		}

		stored := *c
		if stored.MaxAge > 0 {
			stored.Expires = j.now().Add(time.Duration(stored.MaxAge) * time.Second)
			stored.MaxAge = 0
		}
		stored.Raw = ""
		j.entries[key] = storedCookie{URL: origin, Cookie: &stored}
	}

	j.persist()
}

func (j *FileJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Reset forgets every cookie and truncates the file.
func (j *FileJar) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar = newCookieJar()
	clear(j.entries)
	j.persist()
}

func (j *FileJar) persist() {
	if err := j.saveLocked(); err != nil {
		log.Warn().Err(err).Str("path", j.path).Msg("failed to persist cookie jar")
	}
}

func (j *FileJar) saveLocked() error {
	stored := make([]storedCookie, 0, len(j.entries))
	for _, sc := range j.entries {
		if !j.expired(sc.Cookie) {
			stored = append(stored, sc)
		}
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(j.path, data, 0o600)
}

func (j *FileJar) expired(c *http.Cookie) bool {
	return !c.Expires.IsZero() && !c.Expires.After(j.now())
}

func cookieKey(u *url.URL, c *http.Cookie) string {
	domain := c.Domain
	if domain == "" {
		domain = u.Hostname()
	}
	return domain + "|" + c.Path + "|" + c.Name
}
