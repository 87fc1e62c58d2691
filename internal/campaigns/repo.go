package campaigns

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
	"github.com/dmarqs/promoterhub-backend/pkg/pagination"
)

// Repository encapsulates campaign persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a campaigns repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new campaign and returns the persisted model.
func (r *Repository) Create(ctx context.Context, campaign *models.Campaign) error {
	return r.db.WithContext(ctx).Create(campaign).Error
}

// FindByID loads a campaign by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.db.WithContext(ctx).First(&campaign, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

// ListByAccount returns every campaign for the account. The result set is
// bounded by plan quotas, so a full scan is fine here.
func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&campaigns).Error
	return campaigns, err
}

// ListPage returns one cursor page of campaigns for the account.
func (r *Repository) ListPage(ctx context.Context, accountID uuid.UUID, cursor string, limit int) (CampaignsPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)

	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return CampaignsPageDTO{}, err
	}

	query := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limitWithBuffer)

	if decodedCursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			decodedCursor.CreatedAt, decodedCursor.ID,
		)
	}

	var rows []models.Campaign
	if err := query.Find(&rows).Error; err != nil {
		return CampaignsPageDTO{}, err
	}

	page := CampaignsPageDTO{Items: make([]CampaignDTO, 0, len(rows))}
	hasMore := len(rows) > normalizedLimit
	if hasMore {
		rows = rows[:normalizedLimit]
	}
	for i := range rows {
		page.Items = append(page.Items, *FromModel(&rows[i]))
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}

// Update patches the mutable campaign fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, dto UpdateCampaignDTO) (*models.Campaign, error) {
	updates := map[string]any{}
	if dto.Name != nil {
		updates["name"] = *dto.Name
	}
	if dto.Question != nil {
		updates["question"] = *dto.Question
	}
	if dto.Channel != nil {
		updates["channel"] = *dto.Channel
	}
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).
			Model(&models.Campaign{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// SetStatus transitions a campaign's lifecycle status.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.CampaignStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

// CountByAccount returns the number of campaigns owned by the account.
func (r *Repository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count, err
}
