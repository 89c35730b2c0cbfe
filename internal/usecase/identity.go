package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/teamzeta/pockit-api/internal/model"
	"github.com/teamzeta/pockit-api/internal/repository"
	"github.com/teamzeta/pockit-api/internal/verifier"
)

// IdentityUsecase maps a verified identity claim to a durable local user
// record, creating one on first resolution.
type IdentityUsecase interface {
	Resolve(ctx context.Context, claim *verifier.Claim) (*model.User, error)
}

// ErrIdentityConflict is returned when a uniqueness conflict survives every
// recovery attempt: the claim collides with existing records that none of
// the fallback lookups can produce.
var ErrIdentityConflict = errors.New("identity conflict")

type identityUsecase struct {
	userRepo repository.UserRepository
	logger   *zerolog.Logger
}

func NewIdentityUsecase(userRepo repository.UserRepository, logger *zerolog.Logger) IdentityUsecase {
	return &identityUsecase{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Resolve finds or creates the user record for the claim. It is idempotent
// under retry and converges concurrent first-time resolutions of the same
// identity onto a single record: conflicting creates are recovered field by
// field instead of failing the request. The external ID lookup always wins
// over the email fallback, never the reverse.
func (u *identityUsecase) Resolve(ctx context.Context, claim *verifier.Claim) (*model.User, error) {
	user, err := u.userRepo.GetUserByExternalID(ctx, claim.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user, err = u.userRepo.GetUserByEmail(ctx, claim.Email)
	if err == nil {
		// The record stays bound to its original subject; re-binding is
		// not this layer's call to make.
		if user.ExternalID != claim.Subject {
			u.logger.Warn().
				Str("email", claim.Email).
				Str("claim_external_id", claim.Subject).
				Str("bound_external_id", user.ExternalID).
				Msg("claim email matches a user bound to a different subject")
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	candidate := &model.User{
		ExternalID:  claim.Subject,
		Email:       claim.Email,
		DisplayName: claim.Name,
	}
	if phone := strings.TrimSpace(claim.PhoneNumber); phone != "" {
		candidate.PhoneNumber = &phone
	}

	// An aborted request must not cancel the insert halfway; the store
	// either creates the record atomically or not at all, and a write the
	// server never learned about would defeat the recovery lookups below.
	createCtx := context.WithoutCancel(ctx)

	user, createErr := u.userRepo.CreateUser(createCtx, candidate)
	if createErr == nil {
		return user, nil
	}

	var conflict *repository.ConflictError
	if !errors.As(createErr, &conflict) {
		return nil, createErr
	}

	field := conflict.Field
	if field == model.FieldPhoneNumber && candidate.PhoneNumber != nil {
		// The phone number is optional and sparsely unique; its absence
		// must never block account creation, so a conflict on it is
		// recoverable by omission.
		u.logger.Warn().
			Str("email", claim.Email).
			Msg("phone number already in use, creating user without it")

		retry := *candidate
		retry.PhoneNumber = nil
		user, err = u.userRepo.CreateUser(createCtx, &retry)
		if err == nil {
			return user, nil
		}
		if !errors.As(err, &conflict) {
			return nil, err
		}
		// Retry exhausted; recover through the email lookup.
		field = model.FieldEmail
	}

	switch field {
	case model.FieldExternalID:
		user, err = u.userRepo.GetUserByExternalID(ctx, claim.Subject)
	default:
		user, err = u.userRepo.GetUserByEmail(ctx, claim.Email)
	}
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	return nil, fmt.Errorf("%w: %w", ErrIdentityConflict, createErr)
}
