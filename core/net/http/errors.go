package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kochabx/carelink/errors"
)

// Errors returned by Client. Match them with errors.Is; the concrete value
// carries method, path and status metadata plus the underlying cause.
var (
	ErrAuth        = errors.Unauthorized("authentication required")
	ErrForbidden   = errors.Forbidden("permission denied")
	ErrNotFound    = errors.NotFound("resource not found")
	ErrRateLimited = errors.TooManyRequests("too many requests")
	ErrServer      = errors.Internal("server error")
	ErrNetwork     = errors.Network("network error")
	// ErrRequest covers the remaining 4xx answers (400, 409, 422, ...).
	ErrRequest = errors.BadRequest("request rejected")
)

const (
	MetaMethod = "method"
	MetaPath   = "path"
	MetaStatus = "status"
	MetaDetail = "detail"
)

// classify maps a non-2xx status to its sentinel.
func classify(status int) *errors.Error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrAuth
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= http.StatusInternalServerError:
		return ErrServer
	default:
		return ErrRequest
	}
}

func requestError(sentinel *errors.Error, method, path string, status int, cause error) *errors.Error {
	return sentinel.WithMetadata(map[string]string{
		MetaMethod: method,
		MetaPath:   path,
		MetaStatus: strconv.Itoa(status),
	}).WithCause(cause)
}

// StatusCode returns the HTTP status recorded on err, 0 when no response was
// received or err did not come from Client.
func StatusCode(err error) int {
	var e *errors.Error
	if !errors.As(err, &e) {
		return 0
	}
	status, _ := strconv.Atoi(e.Metadata[MetaStatus])
	return status
}

// Detail returns the server supplied message recorded on err, if any.
func Detail(err error) string {
	var e *errors.Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Metadata[MetaDetail]
}

// detail extracts a human readable message from a JSON error body.
func detail(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
