package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
)

// Repository exposes account persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an accounts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateAccountDTO) (*models.Account, error) {
	account := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// CreateTx inserts a new account inside an existing transaction.
func (r *Repository) CreateTx(ctx context.Context, tx *gorm.DB, dto CreateAccountDTO) (*models.Account, error) {
	account := dto.ToModel()
	if err := tx.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// FindByID loads an account by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByOwnerUserID loads the account owned by the given user.
func (r *Repository) FindByOwnerUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "owner_user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateProfile patches the mutable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, dto UpdateAccountDTO) (*models.Account, error) {
	updates := map[string]any{}
	if dto.CompanyName != nil {
		updates["company_name"] = *dto.CompanyName
	}
	if dto.Email != nil {
		updates["email"] = *dto.Email
	}
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).
			Model(&models.Account{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// SetSubscriptionActive flips the denormalized billing flag.
func (r *Repository) SetSubscriptionActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		UpdateColumn("subscription_active", active).Error
}

// SetSquareCustomerID records the billing provider's customer reference.
func (r *Repository) SetSquareCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		UpdateColumn("square_customer_id", customerID).Error
}

// TouchLastActive refreshes the account's last_active_at timestamp.
func (r *Repository) TouchLastActive(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		UpdateColumn("last_active_at", at).Error
}

// List pages through accounts in creation order. Used by the cron rollup job.
func (r *Repository) List(ctx context.Context, limit int) ([]models.Account, error) {
	var accounts []models.Account
	query := r.db.WithContext(ctx).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// CountExpiredTrialsWithoutSubscription returns how many accounts sit past the
// trial window with no active subscription. Used by the cron census job.
func (r *Repository) CountExpiredTrialsWithoutSubscription(ctx context.Context, trialCutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("created_at < ? AND subscription_active = ?", trialCutoff, false).
		Count(&count).Error
	return count, err
}
