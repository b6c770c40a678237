package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/viant/authgate/client/auth/store"
	"golang.org/x/oauth2"
)

// Coordinator resolves a credential refresh episode.
type Coordinator interface {
	Await(ctx context.Context, stale string) error
}

type RoundTripper struct {
	store        store.Store
	coordinator  Coordinator
	transport    http.RoundTripper
	logger       *slog.Logger
	proactive    bool
	expiryLeeway time.Duration
}

func New(options ...Option) (*RoundTripper, error) {
	ret := &RoundTripper{
		transport: http.DefaultTransport,
		store:     store.NewMemoryStore(),
		logger:    slog.Default(),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.coordinator == nil {
		return nil, errors.New("transport: coordinator was nil")
	}
	return ret, nil
}

func (r *RoundTripper) Store() store.Store {
	return r.store
}

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if r.proactive && !IsRetried(req.Context()) {
		if pair, err := r.store.LookupPair(req.Context()); err == nil && r.expiring(pair) {
			r.logger.Debug("access credential expiring, refreshing before send",
				slog.String("component", "authgate-transport"),
				slog.String("url", req.URL.Redacted()))
			return r.refreshAndReplay(req, pair.Access)
		}
	}
	resp, used, err := r.send(req)
	return r.handle(req, used, resp, err)
}

// send attaches the stored access credential and transmits a copy of req.
// It returns the credential it used so that the gate can tell a stale
// credential from a rejected one.
func (r *RoundTripper) send(req *http.Request) (*http.Response, string, error) {
	outgoing, err := clone(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to copy request: %w", err)
	}
	access, err := store.Access(req.Context(), r.store)
	switch {
	case err == nil:
		(&oauth2.Token{AccessToken: access, TokenType: "Bearer"}).SetAuthHeader(outgoing)
	case errors.Is(err, store.ErrNotFound):
		access = ""
	default:
		return nil, "", fmt.Errorf("failed to lookup access credential: %w", err)
	}
	resp, err := r.transport.RoundTrip(outgoing)
	return resp, access, err
}

// handle decides whether an outcome is terminal or worth one refresh-and-replay cycle.
func (r *RoundTripper) handle(req *http.Request, used string, resp *http.Response, err error) (*http.Response, error) {
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if IsRetried(req.Context()) {
		r.logger.Debug("unauthorized after refresh",
			slog.String("component", "authgate-transport"),
			slog.String("url", req.URL.Redacted()))
		return resp, nil
	}
	discard(resp)
	return r.refreshAndReplay(req, used)
}

func (r *RoundTripper) refreshAndReplay(req *http.Request, stale string) (*http.Response, error) {
	ctx := MarkRetried(req.Context())
	if err := r.coordinator.Await(ctx, stale); err != nil {
		return nil, err
	}
	resp, _, err := r.send(req.WithContext(ctx))
	return resp, err
}

func (r *RoundTripper) expiring(pair *store.Pair) bool {
	expiry := pair.Expiry()
	return !expiry.IsZero() && time.Now().Add(r.expiryLeeway).After(expiry)
}
