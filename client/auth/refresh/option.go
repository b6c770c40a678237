package refresh

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Option func(*Coordinator)

// WithEmitter sets the receiver of session-ended broadcasts
func WithEmitter(emitter Emitter) Option {
	return func(c *Coordinator) {
		c.emitter = emitter
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMeterProvider sets the meter provider used for refresh metrics
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *Coordinator) {
		c.meterProvider = provider
	}
}

// WithTracerProvider sets the tracer provider used for exchange spans
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Coordinator) {
		c.tracerProvider = provider
	}
}

// WithRefreshTimeout bounds a single exchange call; zero leaves it to the exchanger
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) {
		c.refreshTimeout = timeout
	}
}

// WithWaitTimeout bounds how long a caller stays queued behind an episode; zero waits for the episode
func WithWaitTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) {
		c.waitTimeout = timeout
	}
}
