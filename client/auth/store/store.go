package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

var (
	// ErrNotFound is returned when no credential pair is stored.
	ErrNotFound = errors.New("store: credentials not found")
	// ErrIncompletePair is returned when a pair misses either credential.
	ErrIncompletePair = errors.New("store: access and refresh credentials are both required")
)

// Pair holds the access and refresh credentials issued together by the server.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Valid reports whether both credentials are present.
func (p *Pair) Valid() bool {
	return p != nil && p.Access != "" && p.Refresh != ""
}

// Expiry returns the exp claim of the access credential when it is a JWT,
// or the zero time otherwise. The signature is not verified.
func (p *Pair) Expiry() time.Time {
	if p == nil || p.Access == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(p.Access, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Token converts the pair into a bearer oauth2 token.
func (p *Pair) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  p.Access,
		TokenType:    "Bearer",
		RefreshToken: p.Refresh,
		Expiry:       p.Expiry(),
	}
}

// Store is a pluggable persistence layer for the credential pair.
// SetPair and Clear must be atomic with respect to LookupPair: a reader sees
// either the previous pair or the new one, never a mix of both.
type Store interface {
	LookupPair(ctx context.Context) (*Pair, error)
	SetPair(ctx context.Context, pair *Pair) error
	Clear(ctx context.Context) error
}

// Access returns the stored access credential.
func Access(ctx context.Context, s Store) (string, error) {
	pair, err := s.LookupPair(ctx)
	if err != nil {
		return "", err
	}
	return pair.Access, nil
}

// Refresh returns the stored refresh credential.
func Refresh(ctx context.Context, s Store) (string, error) {
	pair, err := s.LookupPair(ctx)
	if err != nil {
		return "", err
	}
	return pair.Refresh, nil
}

type memoryStore struct {
	mu   sync.RWMutex
	pair *Pair
}

func (m *memoryStore) LookupPair(_ context.Context) (*Pair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pair == nil {
		return nil, ErrNotFound
	}
	ret := *m.pair
	return &ret, nil
}

func (m *memoryStore) SetPair(_ context.Context, pair *Pair) error {
	if !pair.Valid() {
		return ErrIncompletePair
	}
	stored := *pair
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = &stored
	return nil
}

func (m *memoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = nil
	return nil
}

// NewMemoryStore creates an in-memory store, optionally seeded with a pair.
func NewMemoryStore(options ...MemoryStoreOption) Store {
	ret := &memoryStore{}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

type MemoryStoreOption func(*memoryStore)

// WithPair seeds the store with an initial pair; incomplete pairs are ignored.
func WithPair(pair *Pair) MemoryStoreOption {
	return func(m *memoryStore) {
		if pair.Valid() {
			stored := *pair
			m.pair = &stored
		}
	}
}
