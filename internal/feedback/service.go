package feedback

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/internal/analytics"
	"github.com/dmarqs/promoterhub-backend/internal/entitlements"
	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
)

// CampaignReader resolves the campaign a public submission targets.
type CampaignReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
}

// ResponseStore is the persistence surface the service writes through.
type ResponseStore interface {
	Create(ctx context.Context, response *models.Response) error
	ListPage(ctx context.Context, campaignID uuid.UUID, cursor string, limit int) (ResponsesPageDTO, error)
}

// ServiceParams groups dependencies for the feedback service.
type ServiceParams struct {
	Repo         ResponseStore
	Campaigns    CampaignReader
	Entitlements entitlements.Service
	Publisher    analytics.EventPublisher
	Logger       *logger.Logger
}

// Service handles survey response intake and retrieval.
type Service interface {
	Submit(ctx context.Context, campaignID uuid.UUID, dto SubmitResponseDTO) (*ResponseDTO, error)
	ListByCampaign(ctx context.Context, accountID, campaignID uuid.UUID, cursor string, limit int) (ResponsesPageDTO, error)
}

type service struct {
	repo         ResponseStore
	campaigns    CampaignReader
	entitlements entitlements.Service
	publisher    analytics.EventPublisher
	logg         *logger.Logger
}

// NewService builds a feedback service with the required dependencies. The
// analytics publisher is optional; intake works without the warehouse.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "response repo is required")
	}
	if params.Campaigns == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign reader is required")
	}
	if params.Entitlements == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entitlement service is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		repo:         params.Repo,
		campaigns:    params.Campaigns,
		entitlements: params.Entitlements,
		publisher:    params.Publisher,
		logg:         params.Logger,
	}, nil
}

// Submit accepts a rating from the public survey surface. The target campaign
// must be live, and the owning account must still be under its monthly
// response quota.
func (s *service) Submit(ctx context.Context, campaignID uuid.UUID, dto SubmitResponseDTO) (*ResponseDTO, error) {
	if campaignID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign id is required")
	}
	category, err := enums.CategorizeScore(dto.Score)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "score must be between 0 and 10")
	}

	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "campaign not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}
	if campaign.Status != enums.CampaignStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "campaign is not accepting responses")
	}

	if err := s.entitlements.AuthorizeResponseIntake(ctx, campaign.AccountID); err != nil {
		return nil, err
	}

	response := &models.Response{
		CampaignID: campaign.ID,
		AccountID:  campaign.AccountID,
		ContactID:  dto.ContactID,
		Score:      dto.Score,
		Comment:    dto.Comment,
	}
	if err := s.repo.Create(ctx, response); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist response")
	}

	s.publishEvent(ctx, campaign, response, category)
	return FromModel(response), nil
}

// ListByCampaign returns one cursor page of responses after an ownership check.
func (s *service) ListByCampaign(ctx context.Context, accountID, campaignID uuid.UUID, cursor string, limit int) (ResponsesPageDTO, error) {
	if accountID == uuid.Nil || campaignID == uuid.Nil {
		return ResponsesPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "account id and campaign id are required")
	}

	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ResponsesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "campaign not found")
		}
		return ResponsesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}
	if campaign.AccountID != accountID {
		return ResponsesPageDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "campaign belongs to another account")
	}

	page, err := s.repo.ListPage(ctx, campaignID, cursor, limit)
	if err != nil {
		return ResponsesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list responses")
	}
	return page, nil
}

// publishEvent forwards the response to the analytics pipeline. Publish
// failures are logged and never fail the intake itself.
func (s *service) publishEvent(ctx context.Context, campaign *models.Campaign, response *models.Response, category enums.NPSCategory) {
	if s.publisher == nil {
		return
	}
	event := analytics.NewResponseEvent(
		campaign.AccountID, campaign.ID, response.ID,
		response.Score, category, response.CreatedAt,
	)
	if err := s.publisher.PublishResponse(ctx, event); err != nil {
		s.logg.Error(s.logg.WithCampaignID(ctx, campaign.ID.String()), "publishing response event", err)
	}
}
