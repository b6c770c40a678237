package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/viant/authgate/client/auth/store"
)

// Exchanger trades a refresh credential for a new credential pair.
type Exchanger interface {
	Exchange(ctx context.Context, refresh string) (*store.Pair, error)
}

// ExchangerFunc adapts a function to Exchanger.
type ExchangerFunc func(ctx context.Context, refresh string) (*store.Pair, error)

func (f ExchangerFunc) Exchange(ctx context.Context, refresh string) (*store.Pair, error) {
	return f(ctx, refresh)
}

type exchangeRequest struct {
	Refresh string `json:"refresh"`
}

// HTTPExchanger posts {"refresh": ...} to URL and expects {"access": ..., "refresh": ...}.
// Its client must not be the authenticated client, or a rejected refresh
// would re-enter the coordinator.
type HTTPExchanger struct {
	URL    string
	client *http.Client
}

type ExchangerOption func(*HTTPExchanger)

// WithHTTPClient sets the client used for the exchange call
func WithHTTPClient(client *http.Client) ExchangerOption {
	return func(e *HTTPExchanger) {
		e.client = client
	}
}

// NewHTTPExchanger creates an exchanger calling URL
func NewHTTPExchanger(URL string, options ...ExchangerOption) *HTTPExchanger {
	ret := &HTTPExchanger{
		URL:    URL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

func (e *HTTPExchanger) Exchange(ctx context.Context, refresh string) (*store.Pair, error) {
	body, err := json.Marshal(&exchangeRequest{Refresh: refresh})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(body))
	if err != nil {
		return nil, &ExchangeError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, &ExchangeError{StatusCode: resp.StatusCode}
	}
	pair, err := DecodePair(resp.Body)
	if err != nil {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Err: err}
	}
	return pair, nil
}

// DecodePair reads a {"access": ..., "refresh": ...} document; both fields are required.
func DecodePair(reader io.Reader) (*store.Pair, error) {
	pair := &store.Pair{}
	if err := json.NewDecoder(io.LimitReader(reader, 1<<20)).Decode(pair); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !pair.Valid() {
		return nil, fmt.Errorf("%w: access and refresh are required", ErrMalformedResponse)
	}
	return pair, nil
}
