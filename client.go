package authgate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/viant/authgate/client/auth"
	"github.com/viant/authgate/client/auth/refresh"
	"github.com/viant/authgate/client/auth/session"
	"github.com/viant/authgate/client/auth/store"
	"github.com/viant/authgate/client/auth/transport"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

// Client sends requests through the authenticated transport.
type Client struct {
	*http.Client
	store         store.Store
	bus           *session.Bus
	coordinator   *refresh.Coordinator
	authenticator *auth.Authenticator
	redis         redis.UniversalClient
}

type Option func(*clientConfig)

type clientConfig struct {
	store          store.Store
	transport      http.RoundTripper
	logger         *slog.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// WithStore overrides the configured credential store
func WithStore(s store.Store) Option {
	return func(c *clientConfig) {
		c.store = s
	}
}

// WithTransport sets the base transport used for API, login and refresh calls
func WithTransport(rt http.RoundTripper) Option {
	return func(c *clientConfig) {
		c.transport = rt
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithMeterProvider sets the refresh metrics provider
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *clientConfig) {
		c.meterProvider = provider
	}
}

// WithTracerProvider sets the refresh tracer provider
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *clientConfig) {
		c.tracerProvider = provider
	}
}

// NewClient creates a client with store, refresh coordination and session events configured via ClientOptions.
func NewClient(options *ClientOptions, opts ...Option) (*Client, error) {
	options.Init()
	if err := options.Validate(); err != nil {
		return nil, err
	}
	cfg := &clientConfig{transport: http.DefaultTransport, logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	ret := &Client{store: cfg.store}
	if ret.store == nil {
		var err error
		if ret.store, err = ret.newStore(context.Background(), options); err != nil {
			return nil, err
		}
	}
	ret.bus = session.New(session.WithLogger(cfg.logger))
	exchanger := refresh.NewHTTPExchanger(options.RefreshURL,
		refresh.WithHTTPClient(&http.Client{Transport: cfg.transport, Timeout: options.refreshTimeout()}))
	refreshOptions := []refresh.Option{
		refresh.WithEmitter(ret.bus),
		refresh.WithLogger(cfg.logger),
		refresh.WithRefreshTimeout(options.refreshTimeout()),
		refresh.WithWaitTimeout(options.waitTimeout()),
	}
	if cfg.meterProvider != nil {
		refreshOptions = append(refreshOptions, refresh.WithMeterProvider(cfg.meterProvider))
	}
	if cfg.tracerProvider != nil {
		refreshOptions = append(refreshOptions, refresh.WithTracerProvider(cfg.tracerProvider))
	}
	var err error
	if ret.coordinator, err = refresh.New(ret.store, exchanger, refreshOptions...); err != nil {
		return nil, ret.closeOnError(err)
	}
	transportOptions := []transport.Option{
		transport.WithStore(ret.store),
		transport.WithCoordinator(ret.coordinator),
		transport.WithTransport(cfg.transport),
		transport.WithLogger(cfg.logger),
	}
	if options.ProactiveRefresh {
		transportOptions = append(transportOptions, transport.WithProactiveRefresh(options.expiryLeeway()))
	}
	rt, err := transport.New(transportOptions...)
	if err != nil {
		return nil, ret.closeOnError(err)
	}
	ret.Client = &http.Client{Transport: rt}
	ret.authenticator = auth.NewAuthenticator(options.LoginURL, ret.store,
		auth.WithHTTPClient(&http.Client{Transport: cfg.transport, Timeout: options.refreshTimeout()}))
	return ret, nil
}

func (c *Client) newStore(ctx context.Context, options *ClientOptions) (store.Store, error) {
	switch options.Store.Type {
	case StoreTypeFile:
		return store.NewFileStore(ctx, options.Store.URL)
	case StoreTypeRedis:
		redisOptions := options.Store.Redis
		c.redis = redis.NewClient(&redis.Options{Addr: redisOptions.Addr})
		var storeOptions []store.RedisStoreOption
		if redisOptions.TTLMs > 0 {
			storeOptions = append(storeOptions, store.WithTTL(options.redisTTL()))
		}
		return store.NewRedisStore(c.redis, redisOptions.Key, storeOptions...), nil
	default:
		return store.NewMemoryStore(), nil
	}
}

func (c *Client) closeOnError(err error) error {
	if c.redis != nil {
		_ = c.redis.Close()
	}
	return err
}

// Request sends method URL with an optional JSON body through the authenticated transport.
// A []byte body is sent as is; any other non-nil body is JSON encoded.
func (c *Client) Request(ctx context.Context, method, URL string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, ok := body.([]byte)
		if !ok {
			var err error
			if data, err = json.Marshal(body); err != nil {
				return nil, fmt.Errorf("failed to encode request body: %w", err)
			}
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, URL, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.Do(req)
}

// OnSessionEnded subscribes listener to session-ended events and returns a function removing it.
func (c *Client) OnSessionEnded(listener session.Listener) (unsubscribe func()) {
	return c.bus.Subscribe(listener)
}

// Login stores the credential pair issued for email and password.
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.authenticator.Login(ctx, email, password)
}

// Logout clears the stored credentials.
func (c *Client) Logout(ctx context.Context) error {
	return c.authenticator.Logout(ctx)
}

func (c *Client) Authenticated(ctx context.Context) bool {
	return c.authenticator.Authenticated(ctx)
}

// SetCredentials stores access and refresh as the current pair.
func (c *Client) SetCredentials(ctx context.Context, access, refresh string) error {
	return c.store.SetPair(ctx, &store.Pair{Access: access, Refresh: refresh})
}

func (c *Client) Store() store.Store {
	return c.store
}

func (c *Client) Coordinator() *refresh.Coordinator {
	return c.coordinator
}

// TokenSource exposes the stored access credential to oauth2-aware collaborators.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return store.TokenSource(ctx, c.store)
}

// Close releases the store connection opened by NewClient, if any.
func (c *Client) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}
