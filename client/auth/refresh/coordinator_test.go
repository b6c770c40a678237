package refresh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/authgate/client/auth/store"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type countingEmitter struct {
	count   atomic.Int32
	mux     sync.Mutex
	reasons []error
}

func (e *countingEmitter) EmitLogout(_ context.Context, reason error) {
	e.count.Add(1)
	e.mux.Lock()
	e.reasons = append(e.reasons, reason)
	e.mux.Unlock()
}

// gatedExchanger blocks every exchange until release is closed.
type gatedExchanger struct {
	calls   atomic.Int32
	release chan struct{}
	pair    *store.Pair
	err     error
}

func newGatedExchanger(pair *store.Pair, err error) *gatedExchanger {
	return &gatedExchanger{release: make(chan struct{}), pair: pair, err: err}
}

func (g *gatedExchanger) Exchange(ctx context.Context, refresh string) (*store.Pair, error) {
	g.calls.Add(1)
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.pair, g.err
}

func newTestCoordinator(t *testing.T, s store.Store, exchanger Exchanger, options ...Option) (*Coordinator, *countingEmitter) {
	t.Helper()
	emitter := &countingEmitter{}
	coordinator, err := New(s, exchanger, append([]Option{WithEmitter(emitter)}, options...)...)
	require.NoError(t, err)
	return coordinator, emitter
}

func awaitConcurrently(coordinator *Coordinator, n int, stale string) chan error {
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			results <- coordinator.Await(context.Background(), stale)
		}()
	}
	return results
}

func TestCoordinator_SingleFlight(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(store.WithPair(&store.Pair{Access: "a1", Refresh: "r1"}))
	exchanger := newGatedExchanger(&store.Pair{Access: "a2", Refresh: "r2"}, nil)
	coordinator, emitter := newTestCoordinator(t, s, exchanger)

	const n = 25
	results := awaitConcurrently(coordinator, n, "a1")
	assert.Eventually(t, func() bool { return coordinator.Waiting() == n }, 2*time.Second, time.Millisecond)
	assert.True(t, coordinator.Refreshing())
	close(exchanger.release)

	for i := 0; i < n; i++ {
		assert.NoError(t, <-results)
	}
	assert.EqualValues(t, 1, exchanger.calls.Load())
	assert.EqualValues(t, 0, emitter.count.Load())
	assert.False(t, coordinator.Refreshing())
	assert.Equal(t, 0, coordinator.Waiting())

	pair, err := s.LookupPair(ctx)
	require.NoError(t, err)
	assert.Equal(t, &store.Pair{Access: "a2", Refresh: "r2"}, pair)
}

func TestCoordinator_FailureFanOut(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(store.WithPair(&store.Pair{Access: "a1", Refresh: "r1"}))
	rejected := &ExchangeError{StatusCode: http.StatusUnauthorized}
	exchanger := newGatedExchanger(nil, rejected)
	coordinator, emitter := newTestCoordinator(t, s, exchanger)

	const n = 10
	results := awaitConcurrently(coordinator, n, "a1")
	assert.Eventually(t, func() bool { return coordinator.Waiting() == n }, 2*time.Second, time.Millisecond)
	close(exchanger.release)

	for i := 0; i < n; i++ {
		err := <-results
		assert.ErrorIs(t, err, ErrRefreshRejected)
		assert.Same(t, rejected, err)
	}
	assert.EqualValues(t, 1, exchanger.calls.Load())
	assert.EqualValues(t, 1, emitter.count.Load())
	assert.Same(t, rejected, emitter.reasons[0])
	_, err := s.LookupPair(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, coordinator.Refreshing())
}

func TestCoordinator_MissingRefreshShortCircuit(t *testing.T) {
	exchanger := newGatedExchanger(nil, nil)
	coordinator, emitter := newTestCoordinator(t, store.NewMemoryStore(), exchanger)

	err := coordinator.Await(context.Background(), "")
	assert.ErrorIs(t, err, ErrRefreshUnavailable)
	assert.EqualValues(t, 0, exchanger.calls.Load())
	assert.EqualValues(t, 1, emitter.count.Load())
	assert.ErrorIs(t, emitter.reasons[0], ErrRefreshUnavailable)
	assert.False(t, coordinator.Refreshing())
}

func TestCoordinator_StaleCredential(t *testing.T) {
	s := store.NewMemoryStore(store.WithPair(&store.Pair{Access: "a2", Refresh: "r2"}))
	exchanger := newGatedExchanger(nil, nil)
	coordinator, emitter := newTestCoordinator(t, s, exchanger)

	assert.NoError(t, coordinator.Await(context.Background(), "a1"))
	assert.EqualValues(t, 0, exchanger.calls.Load())
	assert.EqualValues(t, 0, emitter.count.Load())
}

func TestCoordinator_SequentialEpisodes(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(store.WithPair(&store.Pair{Access: "a0", Refresh: "r0"}))
	var calls atomic.Int32
	exchanger := ExchangerFunc(func(ctx context.Context, refresh string) (*store.Pair, error) {
		i := calls.Add(1)
		assert.Equal(t, fmt.Sprintf("r%d", i-1), refresh)
		return &store.Pair{Access: fmt.Sprintf("a%d", i), Refresh: fmt.Sprintf("r%d", i)}, nil
	})
	coordinator, _ := newTestCoordinator(t, s, exchanger)

	require.NoError(t, coordinator.Await(ctx, "a0"))
	require.NoError(t, coordinator.Await(ctx, "a1"))
	// a straggler still holding a0 does not trigger a third exchange
	require.NoError(t, coordinator.Await(ctx, "a0"))
	assert.EqualValues(t, 2, calls.Load())
	access, err := store.Access(ctx, s)
	assert.NoError(t, err)
	assert.Equal(t, "a2", access)
}

func TestCoordinator_WaitTimeout(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(store.WithPair(&store.Pair{Access: "a1", Refresh: "r1"}))
	exchanger := newGatedExchanger(&store.Pair{Access: "a2", Refresh: "r2"}, nil)
	coordinator, _ := newTestCoordinator(t, s, exchanger, WithWaitTimeout(20*time.Millisecond))

	err := coordinator.Await(ctx, "a1")
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.True(t, coordinator.Refreshing())

	// the episode still completes for whoever stays
	close(exchanger.release)
	assert.Eventually(t, func() bool { return !coordinator.Refreshing() }, 2*time.Second, time.Millisecond)
	access, err := store.Access(ctx, s)
	assert.NoError(t, err)
	assert.Equal(t, "a2", access)
}

func TestCoordinator_CallerCancellation(t *testing.T) {
	s := store.NewMemoryStore(store.WithPair(&store.Pair{Access: "a1", Refresh: "r1"}))
	exchanger := newGatedExchanger(&store.Pair{Access: "a2", Refresh: "r2"}, nil)
	coordinator, _ := newTestCoordinator(t, s, exchanger)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leader := make(chan error, 1)
	go func() { leader <- coordinator.Await(leaderCtx, "a1") }()
	assert.Eventually(t, func() bool { return coordinator.Waiting() == 1 }, 2*time.Second, time.Millisecond)
	follower := awaitConcurrently(coordinator, 1, "a1")
	assert.Eventually(t, func() bool { return coordinator.Waiting() == 2 }, 2*time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-leader, context.Canceled)
	// cancelling the leader does not abort the exchange for the others
	close(exchanger.release)
	assert.NoError(t, <-follower)
	assert.EqualValues(t, 1, exchanger.calls.Load())
}

func TestCoordinator_RefreshTimeout(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(store.WithPair(&store.Pair{Access: "a1", Refresh: "r1"}))
	exchanger := newGatedExchanger(nil, nil)
	coordinator, emitter := newTestCoordinator(t, s, exchanger, WithRefreshTimeout(20*time.Millisecond))

	err := coordinator.Await(ctx, "a1")
	assert.ErrorIs(t, err, ErrRefreshRejected)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualValues(t, 1, emitter.count.Load())
	_, err = s.LookupPair(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCoordinator_MalformedExchange(t *testing.T) {
	s := store.NewMemoryStore(store.WithPair(&store.Pair{Access: "a1", Refresh: "r1"}))
	exchanger := ExchangerFunc(func(ctx context.Context, refresh string) (*store.Pair, error) {
		return &store.Pair{Access: "only-access"}, nil
	})
	coordinator, emitter := newTestCoordinator(t, s, exchanger)

	err := coordinator.Await(context.Background(), "a1")
	assert.ErrorIs(t, err, ErrRefreshRejected)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.EqualValues(t, 1, emitter.count.Load())
}

type failingStore struct {
	store.Store
}

func (f *failingStore) SetPair(context.Context, *store.Pair) error {
	return errors.New("disk full")
}

func TestCoordinator_StoreFailureEndsSession(t *testing.T) {
	s := &failingStore{Store: store.NewMemoryStore(store.WithPair(&store.Pair{Access: "a1", Refresh: "r1"}))}
	exchanger := ExchangerFunc(func(ctx context.Context, refresh string) (*store.Pair, error) {
		return &store.Pair{Access: "a2", Refresh: "r2"}, nil
	})
	coordinator, emitter := newTestCoordinator(t, s, exchanger)

	err := coordinator.Await(context.Background(), "a1")
	assert.ErrorContains(t, err, "disk full")
	assert.EqualValues(t, 1, emitter.count.Load())
	_, err = s.LookupPair(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, ExchangerFunc(nil))
	assert.Error(t, err)
	_, err = New(store.NewMemoryStore(), nil)
	assert.Error(t, err)
}

func TestCoordinator_Metrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	s := store.NewMemoryStore(store.WithPair(&store.Pair{Access: "a1", Refresh: "r1"}))
	exchanger := ExchangerFunc(func(ctx context.Context, refresh string) (*store.Pair, error) {
		return &store.Pair{Access: "a2", Refresh: "r2"}, nil
	})
	coordinator, _ := newTestCoordinator(t, s, exchanger, WithMeterProvider(provider))

	require.NoError(t, coordinator.Await(ctx, "a1"))
	require.NoError(t, s.Clear(ctx))
	assert.ErrorIs(t, coordinator.Await(ctx, "a2"), ErrRefreshUnavailable)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	episodes := findMetric(rm, "authgate.refresh.episodes")
	require.NotNil(t, episodes)
	sum, ok := episodes.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64], got %T", episodes.Data)

	byOutcome := map[string]int64{}
	for _, dp := range sum.DataPoints {
		outcome, _ := dp.Attributes.Value("outcome")
		byOutcome[outcome.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{outcomeSuccess: 1, outcomeUnavailable: 1}, byOutcome)
	assert.NotNil(t, findMetric(rm, "authgate.refresh.duration_ms"))
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}
