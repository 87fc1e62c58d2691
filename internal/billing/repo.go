package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/enums"
)

// Repository exposes billing-plan and subscription persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a billing repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindPlanByID loads a billing plan by its local identifier.
func (r *Repository) FindPlanByID(ctx context.Context, id string) (*models.BillingPlan, error) {
	var plan models.BillingPlan
	if err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// FindPlanBySquareID loads the plan mapped to a Square catalog plan.
func (r *Repository) FindPlanBySquareID(ctx context.Context, squarePlanID string) (*models.BillingPlan, error) {
	var plan models.BillingPlan
	if err := r.db.WithContext(ctx).First(&plan, "square_billing_plan_id = ?", squarePlanID).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListActivePlans returns the purchasable plans ordered by price.
func (r *Repository) ListActivePlans(ctx context.Context) ([]models.BillingPlan, error) {
	var plans []models.BillingPlan
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.PlanStatusActive).
		Order("price_amount ASC").
		Find(&plans).Error
	return plans, err
}

// FindDefaultPlan returns the plan marked as the checkout default.
func (r *Repository) FindDefaultPlan(ctx context.Context) (*models.BillingPlan, error) {
	var plan models.BillingPlan
	if err := r.db.WithContext(ctx).
		Where("is_default = ? AND status = ?", true, enums.PlanStatusActive).
		First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// FindCurrentByAccount returns the account's most recent subscription row.
// Rows are never deleted, so the latest row is the authoritative state.
func (r *Repository) FindCurrentByAccount(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindBySquareSubscriptionID loads the subscription mapped to a Square subscription.
func (r *Repository) FindBySquareSubscriptionID(ctx context.Context, squareSubID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).First(&sub, "square_subscription_id = ?", squareSubID).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpsertSubscription inserts or refreshes the row keyed by the Square
// subscription identifier.
func (r *Repository) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "square_subscription_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "plan_id", "square_customer_id", "square_card_id",
				"current_period_start", "current_period_end",
				"cancel_at_period_end", "canceled_at", "metadata", "updated_at",
			}),
		}).
		Create(sub).Error
}

// UpdateSubscriptionStatus transitions a subscription's status and period end.
func (r *Repository) UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status enums.SubscriptionStatus, periodEnd *time.Time) error {
	updates := map[string]any{"status": status}
	if periodEnd != nil {
		updates["current_period_end"] = *periodEnd
	}
	if status == enums.SubscriptionStatusCanceled {
		updates["canceled_at"] = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// SetCancelAtPeriodEnd flags the subscription for end-of-period cancellation.
func (r *Repository) SetCancelAtPeriodEnd(ctx context.Context, id uuid.UUID, cancel bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", id).
		UpdateColumn("cancel_at_period_end", cancel).Error
}

// ListByStatus returns subscriptions in the given states, used by the
// reconcile job to re-check provider truth.
func (r *Repository) ListByStatus(ctx context.Context, statuses []enums.SubscriptionStatus, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("updated_at ASC").
		Limit(limit).
		Find(&subs).Error
	return subs, err
}

// ListExpiringActive returns active subscriptions whose period end has passed.
func (r *Repository) ListExpiringActive(ctx context.Context, asOf time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND current_period_end < ?", enums.SubscriptionStatusActive, asOf).
		Order("current_period_end ASC").
		Limit(limit).
		Find(&subs).Error
	return subs, err
}
