package verifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var (
	ErrInvalidAudience = errors.New("invalid token audience")
)

// profileClaims are the profile attributes carried in the ID token payload.
// They are read from the token after it has been verified remotely; the
// tokeninfo response itself only covers subject, email and audience.
type profileClaims struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	jwt.RegisteredClaims
}

// GoogleVerifier validates Google-issued ID tokens against the tokeninfo
// endpoint. It holds the process-scoped oauth2 service handle, constructed
// once at startup.
type GoogleVerifier struct {
	service  *oauth2.Service
	clientID string
}

// NewGoogleVerifier creates a GoogleVerifier bound to the given OAuth client
// ID. It fails fast so a misconfigured provider stops the process at startup
// instead of rejecting every request.
func NewGoogleVerifier(ctx context.Context, clientID string, opts ...option.ClientOption) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, errors.New("google client ID is required")
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(&http.Client{})}, opts...)
	service, err := oauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth2 service: %w", err)
	}

	return &GoogleVerifier{
		service:  service,
		clientID: clientID,
	}, nil
}

// Verify validates the ID token and returns the claims it asserts.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*Claim, error) {
	// Classify expiry locally before going to the network, so expired
	// tokens are reported as such rather than as a generic rejection.
	profile, err := parseProfile(idToken)
	if err != nil {
		return nil, err
	}

	tokenInfoCall := v.service.Tokeninfo()
	tokenInfoCall.IdToken(idToken)
	tokenInfo, err := tokenInfoCall.Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 {
			return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
		}
		return nil, err
	}

	if tokenInfo.Audience != v.clientID {
		return nil, ErrInvalidAudience
	}

	return &Claim{
		Subject:     tokenInfo.UserId,
		Email:       tokenInfo.Email,
		Name:        profile.Name,
		PhoneNumber: profile.PhoneNumber,
	}, nil
}

// parseProfile extracts the profile claims from the token payload without
// validating the signature; that is the tokeninfo endpoint's job. It fails
// only on expiry, which it can judge locally.
func parseProfile(idToken string) (*profileClaims, error) {
	var claims profileClaims
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &claims); err != nil {
		// Not a JWT; leave the profile empty and let the remote check
		// decide whether the token is acceptable.
		return &profileClaims{}, nil
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, ErrTokenExpired
	}

	return &claims, nil
}
