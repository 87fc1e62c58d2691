package campaigns

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/internal/entitlements"
	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
)

// CampaignStore is the persistence surface the service operates on.
type CampaignStore interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	ListPage(ctx context.Context, accountID uuid.UUID, cursor string, limit int) (CampaignsPageDTO, error)
	Update(ctx context.Context, id uuid.UUID, dto UpdateCampaignDTO) (*models.Campaign, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.CampaignStatus) error
}

// ServiceParams groups dependencies for the campaigns service.
type ServiceParams struct {
	Repo         CampaignStore
	Entitlements entitlements.Service
	Logger       *logger.Logger
}

// Service exposes business rules for campaign management.
type Service interface {
	Create(ctx context.Context, accountID uuid.UUID, dto CreateCampaignDTO) (*CampaignDTO, error)
	Get(ctx context.Context, accountID, campaignID uuid.UUID) (*CampaignDTO, error)
	List(ctx context.Context, accountID uuid.UUID, cursor string, limit int) (CampaignsPageDTO, error)
	Update(ctx context.Context, accountID, campaignID uuid.UUID, dto UpdateCampaignDTO) (*CampaignDTO, error)
	SetStatus(ctx context.Context, accountID, campaignID uuid.UUID, status enums.CampaignStatus) (*CampaignDTO, error)
}

type service struct {
	repo         CampaignStore
	entitlements entitlements.Service
	logg         *logger.Logger
}

// NewService builds a campaigns service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign repo is required")
	}
	if params.Entitlements == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entitlement service is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		repo:         params.Repo,
		entitlements: params.Entitlements,
		logg:         params.Logger,
	}, nil
}

// Create checks the plan quota, then persists the campaign as a draft.
func (s *service) Create(ctx context.Context, accountID uuid.UUID, dto CreateCampaignDTO) (*CampaignDTO, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if strings.TrimSpace(dto.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign name is required")
	}
	if strings.TrimSpace(dto.Question) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign question is required")
	}
	if dto.Channel != "" && !dto.Channel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid survey channel")
	}

	if err := s.entitlements.AuthorizeCampaignCreate(ctx, accountID); err != nil {
		return nil, err
	}

	campaign := dto.ToModel(accountID)
	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist campaign")
	}

	s.logg.Info(s.logg.WithCampaignID(ctx, campaign.ID.String()), "campaign created")
	return FromModel(campaign), nil
}

// Get returns the campaign if it belongs to the account.
func (s *service) Get(ctx context.Context, accountID, campaignID uuid.UUID) (*CampaignDTO, error) {
	campaign, err := s.ownedCampaign(ctx, accountID, campaignID)
	if err != nil {
		return nil, err
	}
	return FromModel(campaign), nil
}

// List returns one cursor page of the account's campaigns.
func (s *service) List(ctx context.Context, accountID uuid.UUID, cursor string, limit int) (CampaignsPageDTO, error) {
	if accountID == uuid.Nil {
		return CampaignsPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	page, err := s.repo.ListPage(ctx, accountID, cursor, limit)
	if err != nil {
		return CampaignsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list campaigns")
	}
	return page, nil
}

// Update patches the campaign after an ownership check.
func (s *service) Update(ctx context.Context, accountID, campaignID uuid.UUID, dto UpdateCampaignDTO) (*CampaignDTO, error) {
	if _, err := s.ownedCampaign(ctx, accountID, campaignID); err != nil {
		return nil, err
	}
	if dto.Channel != nil && !dto.Channel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid survey channel")
	}
	campaign, err := s.repo.Update(ctx, campaignID, dto)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update campaign")
	}
	return FromModel(campaign), nil
}

// SetStatus transitions the campaign lifecycle. Archived campaigns still count
// toward the plan quota; the quota measures created campaigns, not live ones.
func (s *service) SetStatus(ctx context.Context, accountID, campaignID uuid.UUID, status enums.CampaignStatus) (*CampaignDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid campaign status")
	}
	if _, err := s.ownedCampaign(ctx, accountID, campaignID); err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, campaignID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update campaign status")
	}
	campaign, err := s.repo.FindByID(ctx, campaignID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload campaign")
	}
	return FromModel(campaign), nil
}

func (s *service) ownedCampaign(ctx context.Context, accountID, campaignID uuid.UUID) (*models.Campaign, error) {
	if accountID == uuid.Nil || campaignID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id and campaign id are required")
	}
	campaign, err := s.repo.FindByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "campaign not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}
	if campaign.AccountID != accountID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "campaign belongs to another account")
	}
	return campaign, nil
}
