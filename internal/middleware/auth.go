package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/teamzeta/pockit-api/internal/model"
	"github.com/teamzeta/pockit-api/internal/usecase"
	"github.com/teamzeta/pockit-api/internal/verifier"
)

// unexported, collision-proof context key
type userContextKey struct{}

var userKey = userContextKey{}

// UserFromContext extracts the resolved user from the request context.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok
}

// ContextWithUser returns a context carrying the resolved user.
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// Authenticator intercepts requests carrying a bearer credential, verifies
// it against the identity provider and attaches the resolved user to the
// request context.
type Authenticator struct {
	verifier   verifier.Verifier
	identities usecase.IdentityUsecase
	logger     *zerolog.Logger
}

func NewAuthenticator(
	v verifier.Verifier,
	identities usecase.IdentityUsecase,
	logger *zerolog.Logger,
) *Authenticator {
	return &Authenticator{
		verifier:   v,
		identities: identities,
		logger:     logger,
	}
}

func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "Unauthorized: No token provided.")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			respondError(w, http.StatusUnauthorized, "Unauthorized: No token provided.")
			return
		}

		claim, err := a.verifier.Verify(r.Context(), token)
		if err != nil {
			if errors.Is(err, verifier.ErrTokenExpired) {
				respondError(w, http.StatusUnauthorized, "Unauthorized: Token expired.")
				return
			}

			a.logger.Warn().Err(err).Msg("token verification failed")
			respondError(w, http.StatusUnauthorized, "Unauthorized: Invalid token.")
			return
		}

		user, err := a.identities.Resolve(r.Context(), claim)
		if err != nil {
			if errors.Is(err, usecase.ErrIdentityConflict) {
				a.logger.Warn().Err(err).Str("email", claim.Email).Msg("identity conflict could not be resolved")
				respondError(w, http.StatusConflict, "Conflict: User with this email or phone number already exists.")
				return
			}

			a.logger.Error().Err(err).Msg("identity resolution failed")
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}
