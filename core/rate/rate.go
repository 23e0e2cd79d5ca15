// Package rate limits actions per key.
package rate

import (
	"context"
	"time"
)

// Limiter reports whether key may act now. The error is non-nil only when
// the decision could not be made.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	AllowN(ctx context.Context, key string, t time.Time, n int) (bool, error)
}
