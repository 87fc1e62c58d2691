package messaging

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/pkg/config"
	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
)

type campaignRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
}

// ServiceParams groups dependencies for the messaging service.
type ServiceParams struct {
	Campaigns campaignRepository
	Publisher MessagePublisher
	Config    config.MessagingConfig
	Logger    *logger.Logger
}

// Service dispatches survey test sends to the external sender functions.
type Service interface {
	SendTest(ctx context.Context, accountID uuid.UUID, input TestSendInput) (*TestMessageEvent, error)
}

type service struct {
	campaigns campaignRepository
	publisher MessagePublisher
	cfg       config.MessagingConfig
	logg      *logger.Logger
}

// NewService builds a messaging service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Campaigns == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign repo is required")
	}
	if params.Publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "publisher is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		campaigns: params.Campaigns,
		publisher: params.Publisher,
		cfg:       params.Config,
		logg:      params.Logger,
	}, nil
}

// SendTest validates the request and publishes the message for the sender
// functions to pick up. Delivery itself is fire-and-forget.
func (s *service) SendTest(ctx context.Context, accountID uuid.UUID, input TestSendInput) (*TestMessageEvent, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}

	channel, err := enums.ParseChannel(strings.ToLower(strings.TrimSpace(input.Channel)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse channel")
	}
	if channel == enums.ChannelLink {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "link campaigns have nothing to send")
	}

	recipient := strings.TrimSpace(input.Recipient)
	if recipient == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}
	if channel == enums.ChannelEmail && !strings.Contains(recipient, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient is not an email address")
	}

	body := strings.TrimSpace(input.Message)
	if input.CampaignID != nil {
		campaign, err := s.ownedCampaign(ctx, accountID, *input.CampaignID)
		if err != nil {
			return nil, err
		}
		if body == "" {
			body = campaign.Question
		}
	}
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message or campaign_id is required")
	}

	event := TestMessageEvent{
		AccountID:   accountID,
		CampaignID:  input.CampaignID,
		Channel:     channel,
		Recipient:   recipient,
		From:        s.sender(channel),
		Body:        body,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishTestMessage(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish test message")
	}

	s.logg.Info(ctx, "test message queued on "+channel.String())
	return &event, nil
}

func (s *service) sender(channel enums.Channel) string {
	if channel == enums.ChannelEmail {
		return s.cfg.DefaultFromEmail
	}
	return s.cfg.DefaultFromPhone
}

func (s *service) ownedCampaign(ctx context.Context, accountID, campaignID uuid.UUID) (*models.Campaign, error) {
	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load campaign")
	}
	if campaign.AccountID != accountID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "campaign belongs to another account")
	}
	return campaign, nil
}
