package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/api/responses"
	"github.com/dmarqs/promoterhub-backend/api/validators"
	"github.com/dmarqs/promoterhub-backend/internal/accounts"
	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
)

type accountStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, dto accounts.UpdateAccountDTO) (*models.Account, error)
}

type updateAccountRequest struct {
	CompanyName *string `json:"company_name"`
	Email       *string `json:"email" validate:"omitempty,email"`
}

// AccountGet returns the caller's tenant record.
func AccountGet(repo accountStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account store unavailable"))
			return
		}

		accountID, err := accountIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := repo.FindByID(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "account not found"))
			return
		}

		responses.WriteSuccess(w, accounts.FromModel(account))
	}
}

// AccountUpdate mutates the tenant profile fields.
func AccountUpdate(repo accountStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "account store unavailable"))
			return
		}

		accountID, err := accountIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateAccountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if body.CompanyName != nil {
			trimmed := validators.SanitizeString(*body.CompanyName, 160)
			if trimmed == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "company_name cannot be empty"))
				return
			}
			body.CompanyName = &trimmed
		}
		if body.Email != nil {
			normalized := strings.ToLower(strings.TrimSpace(*body.Email))
			body.Email = &normalized
		}

		account, err := repo.UpdateProfile(r.Context(), accountID, accounts.UpdateAccountDTO{
			CompanyName: body.CompanyName,
			Email:       body.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, accounts.FromModel(account))
	}
}
