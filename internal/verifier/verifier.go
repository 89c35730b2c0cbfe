package verifier

import (
	"context"
	"errors"
)

// Claim holds the verified identity assertion produced by the external
// identity provider for one request.
type Claim struct {
	Subject     string
	Email       string
	Name        string
	PhoneNumber string
}

var (
	// ErrTokenExpired is returned when the credential is temporally invalid.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned for any other verification failure
	// (malformed, revoked, wrong audience).
	ErrTokenInvalid = errors.New("token invalid")
)

// Verifier validates an ID token issued by the external identity provider.
// Verification failure is terminal for the request; no retries happen at
// this layer.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Claim, error)
}
