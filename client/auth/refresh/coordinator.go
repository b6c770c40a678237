package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/authgate/client/auth/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/viant/authgate/client/auth/refresh"

const (
	DefaultRefreshTimeout = 30 * time.Second
	DefaultWaitTimeout    = 45 * time.Second
)

// Emitter receives the session-ended broadcast of a failed episode.
type Emitter interface {
	EmitLogout(ctx context.Context, reason error)
}

type nopEmitter struct{}

func (nopEmitter) EmitLogout(context.Context, error) {}

// Coordinator guarantees a single in-flight exchange per process.
// The zero value is not usable; use New.
type Coordinator struct {
	store          store.Store
	exchanger      Exchanger
	emitter        Emitter
	logger         *slog.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metrics        *metrics
	tracer         trace.Tracer
	refreshTimeout time.Duration
	waitTimeout    time.Duration

	mux     sync.Mutex
	episode *episode // nil while idle
}

type episode struct {
	id      string
	started time.Time
	waiters []*waiter
}

type waiter struct {
	done chan error // buffered: release never blocks on a caller that gave up
}

// join queues a new waiter; the caller must hold the coordinator lock.
func (e *episode) join() *waiter {
	ret := &waiter{done: make(chan error, 1)}
	e.waiters = append(e.waiters, ret)
	return ret
}

// New creates a coordinator refreshing the credentials held by s through exchanger.
func New(s store.Store, exchanger Exchanger, options ...Option) (*Coordinator, error) {
	if s == nil {
		return nil, errors.New("refresh: store was nil")
	}
	if exchanger == nil {
		return nil, errors.New("refresh: exchanger was nil")
	}
	ret := &Coordinator{
		store:          s,
		exchanger:      exchanger,
		emitter:        nopEmitter{},
		logger:         slog.Default(),
		refreshTimeout: DefaultRefreshTimeout,
		waitTimeout:    DefaultWaitTimeout,
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.meterProvider == nil {
		ret.meterProvider = otel.GetMeterProvider()
	}
	if ret.tracerProvider == nil {
		ret.tracerProvider = otel.GetTracerProvider()
	}
	var err error
	if ret.metrics, err = newMetrics(ret.meterProvider.Meter(instrumentationName)); err != nil {
		return nil, fmt.Errorf("refresh: failed to create metrics: %w", err)
	}
	ret.tracer = ret.tracerProvider.Tracer(instrumentationName)
	return ret, nil
}

// Await returns once fresh credentials are stored, or with the failure that
// ended the session. stale is the access credential the unauthorized request
// was sent with: if the store already holds another one, a previous episode
// rotated it and Await returns at once without starting a new exchange.
func (c *Coordinator) Await(ctx context.Context, stale string) error {
	c.mux.Lock()
	if c.episode != nil {
		w := c.episode.join()
		c.mux.Unlock()
		return c.wait(ctx, w)
	}

	pair, err := c.store.LookupPair(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		c.mux.Unlock()
		return fmt.Errorf("refresh: failed to lookup credentials: %w", err)
	}
	if err == nil && pair.Access != "" && pair.Access != stale {
		c.mux.Unlock()
		c.logger.Debug("credentials already rotated",
			slog.String("component", "authgate-refresh"))
		return nil
	}
	if err != nil || pair.Refresh == "" {
		c.unavailable(ctx)
		return ErrRefreshUnavailable
	}

	ep := &episode{id: uuid.NewString(), started: time.Now()}
	w := ep.join()
	c.episode = ep
	c.mux.Unlock()
	c.logger.Debug("refresh episode started",
		slog.String("component", "authgate-refresh"),
		slog.String("episode", ep.id))
	go c.run(context.WithoutCancel(ctx), ep, pair.Refresh)
	return c.wait(ctx, w)
}

// unavailable ends the session without any exchange. It is entered with the
// lock held so that no caller can queue behind a missing refresh credential.
func (c *Coordinator) unavailable(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	clearErr := c.store.Clear(ctx)
	c.mux.Unlock()
	if clearErr != nil {
		c.logger.Error("failed to clear credentials",
			slog.String("component", "authgate-refresh"),
			slog.String("error", clearErr.Error()))
	}
	c.logger.Warn("refresh credential unavailable",
		slog.String("component", "authgate-refresh"))
	c.metrics.recordEpisode(ctx, outcomeUnavailable, 0, 0)
	c.emitter.EmitLogout(ctx, ErrRefreshUnavailable)
}

func (c *Coordinator) run(ctx context.Context, ep *episode, refresh string) {
	pair, err := c.exchange(ctx, ep, refresh)
	if err == nil {
		if err = c.store.SetPair(ctx, pair); err != nil {
			err = fmt.Errorf("refresh: failed to store refreshed credentials: %w", err)
		}
	}
	elapsed := time.Since(ep.started)
	if err != nil {
		if clearErr := c.store.Clear(ctx); clearErr != nil {
			c.logger.Error("failed to clear credentials",
				slog.String("component", "authgate-refresh"),
				slog.String("episode", ep.id),
				slog.String("error", clearErr.Error()))
		}
		c.logger.Warn("credential refresh failed",
			slog.String("component", "authgate-refresh"),
			slog.String("episode", ep.id),
			slog.String("error", err.Error()))
		// still refreshing here: callers arriving during the broadcast share this outcome
		c.emitter.EmitLogout(ctx, err)
	}

	released := c.release(ep, err)
	if err != nil {
		c.metrics.recordEpisode(ctx, outcomeRejected, released, elapsed)
		return
	}
	c.metrics.recordEpisode(ctx, outcomeSuccess, released, elapsed)
	c.logger.Info("credentials refreshed",
		slog.String("component", "authgate-refresh"),
		slog.String("episode", ep.id),
		slog.Int("released", released),
		slog.Duration("elapsed", elapsed))
}

func (c *Coordinator) exchange(ctx context.Context, ep *episode, refresh string) (*store.Pair, error) {
	if c.refreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.refreshTimeout)
		defer cancel()
	}
	ctx, span := c.tracer.Start(ctx, "authgate.refresh.exchange",
		trace.WithAttributes(attribute.String("authgate.episode", ep.id)))
	defer span.End()

	pair, err := c.exchanger.Exchange(ctx, refresh)
	if err == nil && !pair.Valid() {
		err = ErrMalformedResponse
	}
	if err != nil {
		if !errors.Is(err, ErrRefreshRejected) {
			err = &ExchangeError{Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return pair, nil
}

// release hands the outcome to every queued caller in arrival order and
// only then returns the coordinator to idle.
func (c *Coordinator) release(ep *episode, err error) int {
	c.mux.Lock()
	defer c.mux.Unlock()
	for _, w := range ep.waiters {
		w.done <- err
	}
	released := len(ep.waiters)
	ep.waiters = nil
	c.episode = nil
	return released
}

func (c *Coordinator) wait(ctx context.Context, w *waiter) error {
	var expired <-chan time.Time
	if c.waitTimeout > 0 {
		timer := time.NewTimer(c.waitTimeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case err := <-w.done:
		return err
	case <-ctx.Done():
		c.metrics.recordAbandoned(context.WithoutCancel(ctx), "canceled")
		return ctx.Err()
	case <-expired:
		c.metrics.recordAbandoned(ctx, "timeout")
		return ErrWaitTimeout
	}
}

// Refreshing reports whether an episode is in progress.
func (c *Coordinator) Refreshing() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.episode != nil
}

// Waiting returns the number of callers queued behind the current episode.
func (c *Coordinator) Waiting() int {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.episode == nil {
		return 0
	}
	return len(c.episode.waiters)
}
