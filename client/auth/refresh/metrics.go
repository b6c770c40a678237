package refresh

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	outcomeSuccess     = "success"
	outcomeRejected    = "rejected"
	outcomeUnavailable = "unavailable"
)

type metrics struct {
	episodes  metric.Int64Counter
	abandoned metric.Int64Counter
	waiters   metric.Int64Histogram
	duration  metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	episodes, err := meter.Int64Counter(
		"authgate.refresh.episodes",
		metric.WithDescription("Refresh episodes by outcome"),
		metric.WithUnit("{episode}"),
	)
	if err != nil {
		return nil, err
	}
	abandoned, err := meter.Int64Counter(
		"authgate.refresh.abandoned",
		metric.WithDescription("Queued callers that stopped waiting before their episode completed"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}
	waiters, err := meter.Int64Histogram(
		"authgate.refresh.waiters",
		metric.WithDescription("Callers released per refresh episode"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		"authgate.refresh.duration_ms",
		metric.WithDescription("Refresh exchange duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	return &metrics{episodes: episodes, abandoned: abandoned, waiters: waiters, duration: duration}, nil
}

func (m *metrics) recordEpisode(ctx context.Context, outcome string, waiters int, elapsed time.Duration) {
	opt := metric.WithAttributes(attribute.String("outcome", outcome))
	m.episodes.Add(ctx, 1, opt)
	if outcome == outcomeUnavailable {
		return
	}
	m.waiters.Record(ctx, int64(waiters), opt)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, opt)
}

func (m *metrics) recordAbandoned(ctx context.Context, reason string) {
	m.abandoned.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
