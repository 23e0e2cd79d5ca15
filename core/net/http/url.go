package http

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// URLBuilder builds request URLs below a base URL.
type URLBuilder struct {
	base  url.URL
	path  string
	query url.Values
}

// FromURL starts a builder from rawURL.
func FromURL(rawURL string) (*URLBuilder, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q: scheme and host are required", rawURL)
	}
	return &URLBuilder{base: *u, path: u.Path, query: u.Query()}, nil
}

// AppendPath joins segments onto the path. A segment may carry its own
// query string, which is merged.
func (b *URLBuilder) AppendPath(segments ...string) *URLBuilder {
	parts := []string{b.path}
	for _, s := range segments {
		if s == "" {
			continue
		}
		if p, q, ok := strings.Cut(s, "?"); ok {
			s = p
			if values, err := url.ParseQuery(q); err == nil {
				b.QueryValues(values)
			}
		}
		parts = append(parts, s)
	}
	b.path = path.Join(parts...)
	if !strings.HasPrefix(b.path, "/") {
		b.path = "/" + b.path
	}
	return b
}

// Query adds a single parameter.
func (b *URLBuilder) Query(key, value string) *URLBuilder {
	b.query.Add(key, value)
	return b
}

// QueryValues adds every parameter of values.
func (b *URLBuilder) QueryValues(values url.Values) *URLBuilder {
	for k, vs := range values {
		for _, v := range vs {
			b.query.Add(k, v)
		}
	}
	return b
}

// Clone copies the builder so a base can be reused.
func (b *URLBuilder) Clone() *URLBuilder {
	q := make(url.Values, len(b.query))
	for k, v := range b.query {
		q[k] = append([]string(nil), v...)
	}
	return &URLBuilder{base: b.base, path: b.path, query: q}
}

func (b *URLBuilder) String() string {
	u := b.base
	// segments may already be escaped by Join
	if p, err := url.PathUnescape(b.path); err == nil {
		u.Path, u.RawPath = p, b.path
	} else {
		u.Path, u.RawPath = b.path, ""
	}
	u.RawQuery = b.query.Encode()
	u.Fragment = ""
	return u.String()
}

// Join joins path segments with single slashes.
func Join(base string, segments ...string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, base)
	for _, s := range segments {
		if s != "" {
			parts = append(parts, url.PathEscape(s))
		}
	}
	return path.Join(parts...)
}
