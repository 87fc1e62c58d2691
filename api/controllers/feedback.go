package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/api/responses"
	"github.com/dmarqs/promoterhub-backend/api/validators"
	"github.com/dmarqs/promoterhub-backend/internal/feedback"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
)

type submitResponseRequest struct {
	Score     int     `json:"score"`
	Comment   *string `json:"comment"`
	ContactID *string `json:"contact_id"`
}

// PublicResponseSubmit accepts a rating from a survey link. It is
// unauthenticated; the campaign id in the path scopes the write and the
// service enforces the owning account's response quota.
func PublicResponseSubmit(svc feedback.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feedback service unavailable"))
			return
		}

		campaignID, err := campaignIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body submitResponseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto := feedback.SubmitResponseDTO{Score: body.Score}
		if body.Comment != nil {
			trimmed := validators.SanitizeString(*body.Comment, 2000)
			if trimmed != "" {
				dto.Comment = &trimmed
			}
		}
		if body.ContactID != nil && strings.TrimSpace(*body.ContactID) != "" {
			contactID, err := uuid.Parse(*body.ContactID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid contact id"))
				return
			}
			dto.ContactID = &contactID
		}

		created, err := svc.Submit(r.Context(), campaignID, dto)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// CampaignResponses lists a campaign's responses for the owning account.
func CampaignResponses(svc feedback.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feedback service unavailable"))
			return
		}

		accountID, err := accountIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		campaignID, err := campaignIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		page, err := svc.ListByCampaign(r.Context(), accountID, campaignID, cursor, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
