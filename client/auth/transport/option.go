package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/viant/authgate/client/auth/store"
)

type Option func(*RoundTripper)

// WithStore sets store
func WithStore(store store.Store) Option {
	return func(t *RoundTripper) {
		t.store = store
	}
}

// WithCoordinator sets the refresh coordinator
func WithCoordinator(coordinator Coordinator) Option {
	return func(t *RoundTripper) {
		t.coordinator = coordinator
	}
}

// WithTransport sets the underlying transport
func WithTransport(transport http.RoundTripper) Option {
	return func(t *RoundTripper) {
		t.transport = transport
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(t *RoundTripper) {
		t.logger = logger
	}
}

// WithProactiveRefresh refreshes before sending when the stored access
// credential is a JWT expiring within leeway.
func WithProactiveRefresh(leeway time.Duration) Option {
	return func(t *RoundTripper) {
		t.proactive = true
		t.expiryLeeway = leeway
	}
}
