package errors

// HTTP flavoured constructors.

func BadRequest(format string, args ...any) *Error {
	return New(400, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(401, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(403, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(404, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(409, format, args...)
}

func UnprocessableEntity(format string, args ...any) *Error {
	return New(422, format, args...)
}

func TooManyRequests(format string, args ...any) *Error {
	return New(429, format, args...)
}

func Internal(format string, args ...any) *Error {
	return New(500, format, args...)
}

func ServiceUnavailable(format string, args ...any) *Error {
	return New(503, format, args...)
}

// Network reports that no response was received.
func Network(format string, args ...any) *Error {
	return New(NetworkCode, format, args...)
}

// IsClientError reports whether err carries a 4xx code.
func IsClientError(err error) bool {
	code := Code(err)
	return code >= 400 && code < 500
}

// IsServerError reports whether err carries a 5xx code.
func IsServerError(err error) bool {
	code := Code(err)
	return code >= 500 && code < 600
}
