package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/api/middleware"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
)

// accountIDFromRequest resolves the tenant identity seeded by the auth middleware.
func accountIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.AccountIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "account context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid account id")
	}
	return id, nil
}
