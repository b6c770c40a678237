package refresh

import (
	"errors"
	"fmt"
)

var (
	// ErrRefreshUnavailable is returned when no refresh credential is stored.
	ErrRefreshUnavailable = errors.New("refresh: refresh credential unavailable")
	// ErrRefreshRejected matches every failed exchange.
	ErrRefreshRejected = errors.New("refresh: refresh credential rejected")
	// ErrMalformedResponse is returned when the exchange response body is not a credential pair.
	ErrMalformedResponse = errors.New("refresh: malformed refresh response")
	// ErrWaitTimeout is returned to a queued caller whose bounded wait elapsed.
	ErrWaitTimeout = errors.New("refresh: timed out waiting for credential refresh")
)

// ExchangeError describes a failed exchange. It matches ErrRefreshRejected.
type ExchangeError struct {
	StatusCode int
	Err        error
}

func (e *ExchangeError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("refresh: exchange failed with status %d: %v", e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("refresh: exchange failed with status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("refresh: exchange failed: %v", e.Err)
	}
	return ErrRefreshRejected.Error()
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

func (e *ExchangeError) Is(target error) bool {
	return target == ErrRefreshRejected
}
