package http

import (
	"context"
	"net/http"
)

// Requester is the part of Client the service packages depend on.
type Requester interface {
	Request(ctx context.Context, method, path string, body any, opts ...func(*RequestOption)) (*http.Response, error)
}

var _ Requester = (*Client)(nil)
