package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/viant/authgate"
	"github.com/viant/authgate/client/auth/session"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one probe request.
type Result struct {
	Index   int
	Status  int
	Elapsed time.Duration
	Err     error
}

func (r *Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("#%d error %v (%s)", r.Index, r.Err, r.Elapsed.Round(time.Millisecond))
	}
	return fmt.Sprintf("#%d %d %s (%s)", r.Index, r.Status, http.StatusText(r.Status), r.Elapsed.Round(time.Millisecond))
}

type Service struct {
	options *Options
	client  *authgate.Client
	writer  io.Writer
}

// New creates a probe service with an authenticated client built from options.
func New(ctx context.Context, options *Options, writer io.Writer, opts ...authgate.Option) (*Service, error) {
	options.Init()
	clientOptions, err := options.clientOptions(ctx)
	if err != nil {
		return nil, err
	}
	client, err := authgate.NewClient(clientOptions, opts...)
	if err != nil {
		return nil, err
	}
	ret := &Service{options: options, client: client, writer: writer}
	client.OnSessionEnded(ret.sessionEnded)
	return ret, nil
}

func (s *Service) sessionEnded(_ context.Context, event *session.Event) {
	_, _ = fmt.Fprintf(s.writer, "session ended: %v\n", event.Reason)
}

// Authenticate seeds the store from the configured credentials, or logs in when an email is given.
func (s *Service) Authenticate(ctx context.Context) error {
	if s.options.Email != "" {
		return s.client.Login(ctx, s.options.Email, s.options.Password)
	}
	if s.options.Access == "" && s.options.Refresh == "" {
		return nil
	}
	return s.client.SetCredentials(ctx, s.options.Access, s.options.Refresh)
}

// Probe sends the configured request Requests times, at most Concurrency at once.
func (s *Service) Probe(ctx context.Context) ([]*Result, error) {
	var body interface{}
	if s.options.Data != "" {
		if !json.Valid([]byte(s.options.Data)) {
			return nil, fmt.Errorf("invalid JSON data: %s", s.options.Data)
		}
		body = []byte(s.options.Data)
	}
	results := make([]*Result, s.options.Requests)
	group := errgroup.Group{}
	group.SetLimit(s.options.Concurrency)
	for i := range results {
		index := i
		group.Go(func() error {
			results[index] = s.send(ctx, index, body)
			return nil
		})
	}
	err := group.Wait()
	return results, err
}

func (s *Service) send(ctx context.Context, index int, body interface{}) *Result {
	started := time.Now()
	ret := &Result{Index: index}
	resp, err := s.client.Request(ctx, s.options.Method, s.options.URL, body)
	ret.Elapsed = time.Since(started)
	if err != nil {
		ret.Err = err
		return ret
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	ret.Status = resp.StatusCode
	return ret
}

func (s *Service) Close() error {
	return s.client.Close()
}
