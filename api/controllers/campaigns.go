package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmarqs/promoterhub-backend/api/responses"
	"github.com/dmarqs/promoterhub-backend/api/validators"
	"github.com/dmarqs/promoterhub-backend/internal/campaigns"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
)

type createCampaignRequest struct {
	Name     string `json:"name" validate:"required,max=160"`
	Question string `json:"question" validate:"required,max=500"`
	Channel  string `json:"channel" validate:"required"`
}

type updateCampaignRequest struct {
	Name     *string `json:"name"`
	Question *string `json:"question"`
	Channel  *string `json:"channel"`
}

func campaignIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "campaignID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid campaign id")
	}
	return id, nil
}

// CampaignCreate provisions a new survey campaign; quota enforcement happens
// in the service.
func CampaignCreate(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		accountID, err := accountIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createCampaignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		channel, err := enums.ParseChannel(strings.ToLower(body.Channel))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid channel"))
			return
		}

		dto := campaigns.CreateCampaignDTO{
			Name:     validators.SanitizeString(body.Name, 160),
			Question: validators.SanitizeString(body.Question, 500),
			Channel:  channel,
		}

		created, err := svc.Create(r.Context(), accountID, dto)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func CampaignGet(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
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

		campaign, err := svc.Get(r.Context(), accountID, campaignID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, campaign)
	}
}

func CampaignList(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		accountID, err := accountIDFromRequest(r)
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

		page, err := svc.List(r.Context(), accountID, cursor, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func CampaignUpdate(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
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

		var body updateCampaignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto := campaigns.UpdateCampaignDTO{}
		if body.Name != nil {
			trimmed := validators.SanitizeString(*body.Name, 160)
			if trimmed == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty"))
				return
			}
			dto.Name = &trimmed
		}
		if body.Question != nil {
			trimmed := validators.SanitizeString(*body.Question, 500)
			if trimmed == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "question cannot be empty"))
				return
			}
			dto.Question = &trimmed
		}
		if body.Channel != nil {
			channel, err := enums.ParseChannel(strings.ToLower(*body.Channel))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid channel"))
				return
			}
			dto.Channel = &channel
		}

		updated, err := svc.Update(r.Context(), accountID, campaignID, dto)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// CampaignActivate moves a draft or paused campaign into the active state.
func CampaignActivate(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return campaignSetStatus(svc, enums.CampaignStatusActive, logg)
}

// CampaignArchive retires a campaign; archived campaigns reject new responses.
func CampaignArchive(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return campaignSetStatus(svc, enums.CampaignStatusArchived, logg)
}

func campaignSetStatus(svc campaigns.Service, status enums.CampaignStatus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
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

		updated, err := svc.SetStatus(r.Context(), accountID, campaignID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
