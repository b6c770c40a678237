package mock

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/authgate/client/auth/store"
	"github.com/viant/authgate/internal/collection"
)

// APIService simulates the recruitment API: login, credential refresh and protected resources.
type APIService struct {
	Secret       []byte
	Issuer       string
	Email        string
	Password     string
	AccessTTL    time.Duration
	RefreshDelay time.Duration

	LoginHandler    func(w http.ResponseWriter, r *http.Request)
	RefreshHandler  func(w http.ResponseWriter, r *http.Request)
	ResourceHandler func(w http.ResponseWriter, r *http.Request)

	accessTokens  *collection.SyncMap[string, bool]
	refreshTokens *collection.SyncMap[string, bool]
	loginCalls    atomic.Int32
	refreshCalls  atomic.Int32
	mux           sync.Mutex
	authorization []string
}

type Option func(*APIService)

// WithRefreshDelay delays every refresh response
func WithRefreshDelay(delay time.Duration) Option {
	return func(s *APIService) {
		s.RefreshDelay = delay
	}
}

// WithAccessTTL sets the lifetime of issued access credentials
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *APIService) {
		s.AccessTTL = ttl
	}
}

// NewAPIService creates a mock API service
func NewAPIService(opts ...Option) *APIService {
	ret := &APIService{
		Secret:        []byte("test_secret"),
		Email:         "recruiter@example.com",
		Password:      "correct-password",
		AccessTTL:     5 * time.Minute,
		accessTokens:  collection.NewSyncMap[string, bool](),
		refreshTokens: collection.NewSyncMap[string, bool](),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Handler returns an http.Handler for all mock endpoints.
func (s *APIService) Handler() http.Handler {
	return &Handler{Service: s}
}

// IssuePair mints a pair accepted by the service, as a successful login would.
func (s *APIService) IssuePair() (*store.Pair, error) {
	access, err := s.createJWT("access", s.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.createJWT("refresh", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	s.accessTokens.Put(access, true)
	s.refreshTokens.Put(refresh, true)
	return &store.Pair{Access: access, Refresh: refresh}, nil
}

// ExpireAccess invalidates every issued access credential.
func (s *APIService) ExpireAccess() {
	s.accessTokens.Clear()
}

// RevokeRefresh invalidates every issued refresh credential.
func (s *APIService) RevokeRefresh() {
	s.refreshTokens.Clear()
}

// RefreshCalls returns the number of refresh requests received.
func (s *APIService) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

// LoginCalls returns the number of login requests received.
func (s *APIService) LoginCalls() int {
	return int(s.loginCalls.Load())
}

// Authorizations returns the Authorization headers seen by protected resources, in arrival order.
func (s *APIService) Authorizations() []string {
	s.mux.Lock()
	defer s.mux.Unlock()
	ret := make([]string, len(s.authorization))
	copy(ret, s.authorization)
	return ret
}

func (s *APIService) recordAuthorization(value string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.authorization = append(s.authorization, value)
}
