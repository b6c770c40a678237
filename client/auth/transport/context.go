package transport

import (
	"context"
)

type (
	contextRetryKey string
)

// ContextRetriedKey marks a request that already went through a credential refresh.
const ContextRetriedKey contextRetryKey = "authRetried"

// MarkRetried returns a context whose requests are never refreshed again.
// Callers may use it to opt a request out of refresh handling altogether.
func MarkRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextRetriedKey, true)
}

// IsRetried reports whether ctx carries the retry marker.
func IsRetried(ctx context.Context) bool {
	if v := ctx.Value(ContextRetriedKey); v != nil {
		retried, _ := v.(bool)
		return retried
	}
	return false
}
