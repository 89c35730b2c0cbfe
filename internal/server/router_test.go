package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/teamzeta/pockit-api/internal/config"
	"github.com/teamzeta/pockit-api/internal/handler"
	"github.com/teamzeta/pockit-api/internal/middleware"
	"github.com/teamzeta/pockit-api/internal/model"
	"github.com/teamzeta/pockit-api/internal/repository"
	"github.com/teamzeta/pockit-api/internal/server"
	"github.com/teamzeta/pockit-api/internal/usecase"
	"github.com/teamzeta/pockit-api/internal/verifier"
)

type stubVerifier struct{}

func (stubVerifier) Verify(context.Context, string) (*verifier.Claim, error) {
	return nil, verifier.ErrTokenInvalid
}

type stubIdentityUsecase struct{}

func (stubIdentityUsecase) Resolve(context.Context, *verifier.Claim) (*model.User, error) {
	return nil, errors.New("not reachable in this test")
}

var _ usecase.IdentityUsecase = stubIdentityUsecase{}

type noopUserRepository struct{}

func (*noopUserRepository) CreateUser(context.Context, *model.User) (*model.User, error) {
	return nil, repository.ErrUserNotFound
}

func (*noopUserRepository) GetUser(context.Context, string) (*model.User, error) {
	return nil, repository.ErrUserNotFound
}

func (*noopUserRepository) GetUserByExternalID(context.Context, string) (*model.User, error) {
	return nil, repository.ErrUserNotFound
}

func (*noopUserRepository) GetUserByEmail(context.Context, string) (*model.User, error) {
	return nil, repository.ErrUserNotFound
}

func (*noopUserRepository) UpdateUser(
	context.Context,
	string,
	repository.UpdateUserParams,
) (*model.User, error) {
	return nil, repository.ErrUserNotFound
}

func newTestRouter() http.Handler {
	logger := zerolog.Nop()
	cfg := &config.Config{
		CORSAllowedOrigins: []string{"http://localhost:5173"},
	}

	authn := middleware.NewAuthenticator(stubVerifier{}, stubIdentityUsecase{}, &logger)
	authHandler := handler.NewAuthHandler(&noopUserRepository{}, &logger)
	healthHandler := handler.NewHealthHandler()

	return server.NewRouter(cfg, &logger, authn, authHandler, healthHandler)
}

func TestRouter_HealthEndpointsAreOpen(t *testing.T) {
	t.Parallel()

	router := newTestRouter()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_ProtectedRouteRejectsAnonymousRequests(t *testing.T) {
	t.Parallel()

	router := newTestRouter()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.JSONEq(t, `{"error":"Unauthorized: No token provided."}`, recorder.Body.String())
}

func TestRouter_UnknownRouteAnswersJSON404(t *testing.T) {
	t.Parallel()

	router := newTestRouter()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/transactions", nil))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.JSONEq(
		t,
		`{"error":"Route not found","path":"/api/transactions","method":"GET"}`,
		recorder.Body.String(),
	)
}
