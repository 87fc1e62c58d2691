package campaigns

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
)

func setupCampaignsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	campaigns := `
CREATE TABLE IF NOT EXISTS campaigns (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  name TEXT NOT NULL,
  question TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  channel TEXT NOT NULL DEFAULT 'link',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(campaigns).Error)
	return db
}

func createCampaign(t *testing.T, db *gorm.DB, accountID uuid.UUID, name string, created time.Time) *models.Campaign {
	t.Helper()

	campaign := &models.Campaign{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      name,
		Question:  "How likely are you to recommend us?",
		Status:    enums.CampaignStatusDraft,
		Channel:   enums.ChannelEmail,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, db.Create(campaign).Error)
	return campaign
}

func TestRepositoryListPage_pagination(t *testing.T) {
	db := setupCampaignsTestDB(t)
	repo := NewRepository(db)

	accountID := uuid.New()
	otherAccount := uuid.New()
	now := time.Now().UTC()
	createCampaign(t, db, accountID, "Post-onboarding pulse", now.Add(-2*time.Hour))
	createCampaign(t, db, accountID, "Quarterly relationship survey", now.Add(-time.Hour))
	createCampaign(t, db, accountID, "Support follow-up", now)
	createCampaign(t, db, otherAccount, "Someone else's survey", now)

	first, err := repo.ListPage(context.Background(), accountID, "", 2)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotNil(t, first.NextCursor)
	assert.Equal(t, "Support follow-up", first.Items[0].Name)
	assert.Equal(t, "Quarterly relationship survey", first.Items[1].Name)

	second, err := repo.ListPage(context.Background(), accountID, *first.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Nil(t, second.NextCursor)
	assert.Equal(t, "Post-onboarding pulse", second.Items[0].Name)
}

func TestRepositoryListPage_rejectsMalformedCursor(t *testing.T) {
	db := setupCampaignsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.ListPage(context.Background(), uuid.New(), "not-base64!", 10)
	require.Error(t, err)
}

func TestRepositorySetStatus(t *testing.T) {
	db := setupCampaignsTestDB(t)
	repo := NewRepository(db)

	accountID := uuid.New()
	campaign := createCampaign(t, db, accountID, "Launch pulse", time.Now().UTC())

	require.NoError(t, repo.SetStatus(context.Background(), campaign.ID, enums.CampaignStatusActive))

	found, err := repo.FindByID(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CampaignStatusActive, found.Status)
}

func TestRepositoryUpdate_patchesOnlyProvidedFields(t *testing.T) {
	db := setupCampaignsTestDB(t)
	repo := NewRepository(db)

	campaign := createCampaign(t, db, uuid.New(), "Original name", time.Now().UTC())

	name := "Renamed survey"
	updated, err := repo.Update(context.Background(), campaign.ID, UpdateCampaignDTO{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed survey", updated.Name)
	assert.Equal(t, campaign.Question, updated.Question)
	assert.Equal(t, campaign.Channel, updated.Channel)
}

func TestRepositoryCountByAccount(t *testing.T) {
	db := setupCampaignsTestDB(t)
	repo := NewRepository(db)

	accountID := uuid.New()
	now := time.Now().UTC()
	createCampaign(t, db, accountID, "One", now.Add(-time.Minute))
	createCampaign(t, db, accountID, "Two", now)
	createCampaign(t, db, uuid.New(), "Elsewhere", now)

	count, err := repo.CountByAccount(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
