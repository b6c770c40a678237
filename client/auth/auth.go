package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/viant/authgate/client/auth/refresh"
	"github.com/viant/authgate/client/auth/store"
)

// ErrLoginFailed is returned when the login endpoint rejects the credentials.
var ErrLoginFailed = errors.New("auth: login failed")

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Authenticator logs a user in and out by populating and clearing the store.
type Authenticator struct {
	LoginURL string
	store    store.Store
	client   *http.Client
}

type Option func(*Authenticator)

// WithHTTPClient sets the client used for the login call; it must not be the authenticated client
func WithHTTPClient(client *http.Client) Option {
	return func(a *Authenticator) {
		a.client = client
	}
}

// Login exchanges email and password for a credential pair and stores it.
// The store is left untouched when login fails.
func (a *Authenticator) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(&loginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.LoginURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return fmt.Errorf("%w: status %d", ErrLoginFailed, resp.StatusCode)
	}
	pair, err := refresh.DecodePair(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	return a.store.SetPair(ctx, pair)
}

// Logout forgets the stored credentials. It does not broadcast a
// session-ended event: the caller initiated it and owns its session state.
func (a *Authenticator) Logout(ctx context.Context) error {
	return a.store.Clear(ctx)
}

// Authenticated reports whether a credential pair is stored.
func (a *Authenticator) Authenticated(ctx context.Context) bool {
	pair, err := a.store.LookupPair(ctx)
	return err == nil && pair.Valid()
}

// NewAuthenticator creates an authenticator posting to loginURL
func NewAuthenticator(loginURL string, s store.Store, options ...Option) *Authenticator {
	ret := &Authenticator{
		LoginURL: loginURL,
		store:    s,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}
