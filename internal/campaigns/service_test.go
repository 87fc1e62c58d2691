package campaigns

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/internal/entitlements"
	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
)

type stubStore struct {
	campaigns map[uuid.UUID]*models.Campaign
	created   []*models.Campaign
	statuses  map[uuid.UUID]enums.CampaignStatus
}

func newStubStore() *stubStore {
	return &stubStore{
		campaigns: map[uuid.UUID]*models.Campaign{},
		statuses:  map[uuid.UUID]enums.CampaignStatus{},
	}
}

func (s *stubStore) Create(ctx context.Context, campaign *models.Campaign) error {
	campaign.ID = uuid.New()
	s.campaigns[campaign.ID] = campaign
	s.created = append(s.created, campaign)
	return nil
}

func (s *stubStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	campaign, ok := s.campaigns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return campaign, nil
}

func (s *stubStore) ListPage(ctx context.Context, accountID uuid.UUID, cursor string, limit int) (CampaignsPageDTO, error) {
	page := CampaignsPageDTO{}
	for _, campaign := range s.campaigns {
		if campaign.AccountID == accountID {
			page.Items = append(page.Items, *FromModel(campaign))
		}
	}
	return page, nil
}

func (s *stubStore) Update(ctx context.Context, id uuid.UUID, dto UpdateCampaignDTO) (*models.Campaign, error) {
	campaign, ok := s.campaigns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if dto.Name != nil {
		campaign.Name = *dto.Name
	}
	if dto.Question != nil {
		campaign.Question = *dto.Question
	}
	if dto.Channel != nil {
		campaign.Channel = *dto.Channel
	}
	return campaign, nil
}

func (s *stubStore) SetStatus(ctx context.Context, id uuid.UUID, status enums.CampaignStatus) error {
	campaign, ok := s.campaigns[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	campaign.Status = status
	s.statuses[id] = status
	return nil
}

type stubEntitlements struct {
	createErr error
	createFor uuid.UUID
}

func (s *stubEntitlements) Evaluate(ctx context.Context, accountID uuid.UUID) (entitlements.Evaluation, error) {
	return entitlements.Evaluation{}, nil
}

func (s *stubEntitlements) TrialInfo(ctx context.Context, accountID uuid.UUID) (entitlements.TrialInfo, error) {
	return entitlements.TrialInfo{}, nil
}

func (s *stubEntitlements) PlanLimitInfo(ctx context.Context, accountID uuid.UUID) (entitlements.PlanLimitInfo, error) {
	return entitlements.PlanLimitInfo{}, nil
}

func (s *stubEntitlements) AuthorizeCampaignCreate(ctx context.Context, accountID uuid.UUID) error {
	s.createFor = accountID
	return s.createErr
}

func (s *stubEntitlements) AuthorizeResponseIntake(ctx context.Context, accountID uuid.UUID) error {
	return nil
}

func newCampaignService(t *testing.T) (*stubStore, *stubEntitlements, Service) {
	t.Helper()
	store := newStubStore()
	gate := &stubEntitlements{}
	svc, err := NewService(ServiceParams{
		Repo:         store,
		Entitlements: gate,
		Logger:       logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return store, gate, svc
}

func TestCreateCampaign(t *testing.T) {
	store, gate, svc := newCampaignService(t)
	accountID := uuid.New()

	dto, err := svc.Create(context.Background(), accountID, CreateCampaignDTO{
		Name:     "Post-purchase survey",
		Question: "How likely are you to recommend us?",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.Status != enums.CampaignStatusDraft {
		t.Fatalf("new campaigns start as drafts, got %s", dto.Status)
	}
	if dto.Channel != enums.ChannelLink {
		t.Fatalf("default channel is link, got %s", dto.Channel)
	}
	if gate.createFor != accountID {
		t.Fatal("quota must be checked for the creating account")
	}
	if len(store.created) != 1 {
		t.Fatalf("expected 1 persisted campaign, got %d", len(store.created))
	}
}

func TestCreateCampaignBlockedByQuota(t *testing.T) {
	store, gate, svc := newCampaignService(t)
	gate.createErr = pkgerrors.New(pkgerrors.CodeQuotaExceeded, "campaign quota reached for current plan")

	_, err := svc.Create(context.Background(), uuid.New(), CreateCampaignDTO{
		Name:     "Blocked",
		Question: "Why?",
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeQuotaExceeded {
		t.Fatalf("expected QUOTA_EXCEEDED, got %v", err)
	}
	if len(store.created) != 0 {
		t.Fatal("blocked creation must not persist anything")
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	_, _, svc := newCampaignService(t)

	cases := []CreateCampaignDTO{
		{Name: "", Question: "Q"},
		{Name: "N", Question: "  "},
		{Name: "N", Question: "Q", Channel: enums.Channel("fax")},
	}
	for i, dto := range cases {
		_, err := svc.Create(context.Background(), uuid.New(), dto)
		coded := pkgerrors.As(err)
		if coded == nil || coded.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected VALIDATION_ERROR, got %v", i, err)
		}
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	store, _, svc := newCampaignService(t)
	accountID := uuid.New()
	campaign := &models.Campaign{AccountID: accountID, Name: "Mine", Question: "Q"}
	if err := store.Create(context.Background(), campaign); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Get(context.Background(), accountID, campaign.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}

	_, err := svc.Get(context.Background(), uuid.New(), campaign.ID)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	_, err = svc.Get(context.Background(), accountID, uuid.New())
	coded = pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	store, _, svc := newCampaignService(t)
	accountID := uuid.New()
	campaign := &models.Campaign{AccountID: accountID, Name: "Mine", Question: "Q", Status: enums.CampaignStatusDraft}
	if err := store.Create(context.Background(), campaign); err != nil {
		t.Fatalf("seed: %v", err)
	}

	dto, err := svc.SetStatus(context.Background(), accountID, campaign.ID, enums.CampaignStatusActive)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if dto.Status != enums.CampaignStatusActive {
		t.Fatalf("expected active status, got %s", dto.Status)
	}

	_, err = svc.SetStatus(context.Background(), accountID, campaign.ID, enums.CampaignStatus("paused"))
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for unknown status, got %v", err)
	}
}
