package garden

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingCredential    = errors.New("authorization credential missing")
	ErrExpiredCredential    = errors.New("authorization credential expired")
	ErrTriggerNotConfigured = errors.New("telemetry trigger not configured")
)

// TriggerClient asks the backend to synthesize new sensor readings. A nil
// error only means the request was accepted.
type TriggerClient interface {
	Trigger(ctx context.Context) error
}

type TriggerError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TriggerError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("trigger telemetry generation: status %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("trigger telemetry generation: status %d", e.StatusCode)
	default:
		return fmt.Sprintf("trigger telemetry generation: %v", e.Err)
	}
}

func (e *TriggerError) Unwrap() error {
	return e.Err
}

type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Validate rejects an empty token and, when ExpiresAt is set, one that has
// expired at now.
func (c Credential) Validate(now time.Time) error {
	if c.Token == "" {
		return ErrMissingCredential
	}
	if !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt) {
		return ErrExpiredCredential
	}
	return nil
}

type CredentialProvider interface {
	Credential(ctx context.Context) (Credential, error)
}

type StaticCredentials struct {
	Token     string
	ExpiresAt time.Time
}

func (s StaticCredentials) Credential(context.Context) (Credential, error) {
	return Credential{Token: s.Token, ExpiresAt: s.ExpiresAt}, nil
}

// ResolveCredential fetches and validates a credential, reporting every
// failure as a TriggerError so the request is never sent without one.
func ResolveCredential(ctx context.Context, provider CredentialProvider, now time.Time) (Credential, error) {
	if provider == nil {
		return Credential{}, &TriggerError{Err: ErrMissingCredential}
	}
	cred, err := provider.Credential(ctx)
	if err != nil {
		return Credential{}, &TriggerError{Err: fmt.Errorf("%w: %v", ErrMissingCredential, err)}
	}
	if err := cred.Validate(now); err != nil {
		return Credential{}, &TriggerError{Err: err}
	}
	return cred, nil
}
