package feedback

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/pagination"
)

// Repository encapsulates response persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a responses repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new response.
func (r *Repository) Create(ctx context.Context, response *models.Response) error {
	return r.db.WithContext(ctx).Create(response).Error
}

// CountForCampaignSince counts responses for one campaign created at or after
// the cutoff. This backs the monthly usage accounting.
func (r *Repository) CountForCampaignSince(ctx context.Context, campaignID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("campaign_id = ? AND created_at >= ?", campaignID, since).
		Count(&count).Error
	return count, err
}

// ListByCampaign returns every response for a campaign ordered oldest first.
func (r *Repository) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Response, error) {
	var responses []models.Response
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&responses).Error
	return responses, err
}

// ListByAccountSince returns the account's responses created at or after the cutoff.
func (r *Repository) ListByAccountSince(ctx context.Context, accountID uuid.UUID, since time.Time) ([]models.Response, error) {
	var responses []models.Response
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND created_at >= ?", accountID, since).
		Order("created_at ASC").
		Find(&responses).Error
	return responses, err
}

// ListPage returns one cursor page of responses for a campaign.
func (r *Repository) ListPage(ctx context.Context, campaignID uuid.UUID, cursor string, limit int) (ResponsesPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)

	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return ResponsesPageDTO{}, err
	}

	query := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at DESC, id DESC").
		Limit(limitWithBuffer)

	if decodedCursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			decodedCursor.CreatedAt, decodedCursor.ID,
		)
	}

	var rows []models.Response
	if err := query.Find(&rows).Error; err != nil {
		return ResponsesPageDTO{}, err
	}

	page := ResponsesPageDTO{Items: make([]ResponseDTO, 0, len(rows))}
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
