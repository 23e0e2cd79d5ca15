package http

import "strings"

const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"
	ContentTypeText = "text/plain"
)

const (
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"
	HeaderUserRole    = "X-User-Role"
	HeaderRequestTime = "X-Request-Time"
	HeaderRequestID   = "X-Request-Id"
)

// RequestTimeFormat is ISO-8601 in UTC with millisecond precision.
const RequestTimeFormat = "2006-01-02T15:04:05.000Z"

// Auth endpoints relative to the base URL.
const (
	LoginPath   = "/auth/login"
	SignupPath  = "/auth/signup"
	RefreshPath = "/auth/refresh"
	LogoutPath  = "/auth/logout"
	MePath      = "/auth/me"

	authPrefix = "/auth/"
)

// isAuthPath reports whether a 401 on path must not trigger a refresh.
func isAuthPath(path string) bool {
	for _, p := range []string{LoginPath, SignupPath, RefreshPath} {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}
