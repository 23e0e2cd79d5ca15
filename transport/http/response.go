package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/carelink/errors"
)

const (
	StatusOK                  = http.StatusOK
	StatusCreated             = http.StatusCreated
	StatusNoContent           = http.StatusNoContent
	StatusBadRequest          = http.StatusBadRequest
	StatusUnauthorized        = http.StatusUnauthorized
	StatusForbidden           = http.StatusForbidden
	StatusNotFound            = http.StatusNotFound
	StatusConflict            = http.StatusConflict
	StatusTooManyRequests     = http.StatusTooManyRequests
	StatusInternalServerError = http.StatusInternalServerError
	StatusServiceUnavailable  = http.StatusServiceUnavailable
)

// JSON writes data as the response body.
func JSON(c *gin.Context, status int, data any) {
	if c == nil {
		return
	}
	c.JSON(status, data)
}

// Error writes err as an errors.Status body. A zero status takes the code
// of err when it is an HTTP status, 500 otherwise.
func Error(c *gin.Context, status int, err error) {
	if c == nil {
		return
	}
	status, body := errorBody(status, err)
	c.JSON(status, body)
}

// AbortError is Error followed by c.Abort.
func AbortError(c *gin.Context, status int, err error) {
	if c == nil {
		return
	}
	status, body := errorBody(status, err)
	c.AbortWithStatusJSON(status, body)
}

func errorBody(status int, err error) (int, *errors.Status) {
	var e *errors.Error
	isCoded := errors.As(err, &e)

	if status == 0 {
		status = StatusInternalServerError
		if isCoded && e.Code >= 400 && e.Code < 600 {
			status = e.Code
		}
	}

	body := &errors.Status{Code: status, Message: http.StatusText(status)}
	switch {
	case isCoded:
		body.Message = e.Message
		body.Metadata = e.GetMetadata()
	// uncoded 5xx errors keep the generic status text
	case err != nil && status < StatusInternalServerError:
		body.Message = err.Error()
	}
	return status, body
}
