package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/rs/zerolog"

	"github.com/teamzeta/pockit-api/internal/middleware"
	"github.com/teamzeta/pockit-api/internal/repository"
)

// UpdateProfileRequest carries the mutable profile fields. A phone number
// set to the empty string removes it from the account.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=32"`
}

// AuthHandler serves the authenticated profile endpoints.
type AuthHandler struct {
	users      repository.UserRepository
	validate   *validator.Validate
	translator ut.Translator
	logger     *zerolog.Logger
}

func NewAuthHandler(users repository.UserRepository, logger *zerolog.Logger) *AuthHandler {
	validate := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(validate, translator); err != nil {
		logger.Fatal().Err(err).Msg("failed to register validator translations")
	}

	return &AuthHandler{
		users:      users,
		validate:   validate,
		translator: translator,
		logger:     logger,
	}
}

// Me returns the user resolved by the authentication middleware. The record
// is re-read by ID so the response reflects profile changes made after the
// middleware resolved it.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	current, err := h.users.GetUser(r.Context(), user.ID.Hex())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}

		h.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to load user profile")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, current)
}

// UpdateMe updates the mutable profile fields of the resolved user.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DisplayName == nil && req.PhoneNumber == nil {
		respondError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			fields := make(map[string]string, len(validationErrs))
			for _, fieldErr := range validationErrs {
				fields[fieldErr.Field()] = fieldErr.Translate(h.translator)
			}
			respondJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": fields,
			})
			return
		}

		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.users.UpdateUser(r.Context(), user.ID.Hex(), repository.UpdateUserParams{
		DisplayName: req.DisplayName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		var conflict *repository.ConflictError
		switch {
		case errors.As(err, &conflict):
			respondError(w, http.StatusConflict, "Conflict: User with this email or phone number already exists.")
		case errors.Is(err, repository.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "user not found")
		default:
			h.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to update user profile")
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, updated)
}
