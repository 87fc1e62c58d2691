package contacts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	"github.com/dmarqs/promoterhub-backend/pkg/pagination"
)

// Repository encapsulates contact and segment persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a contacts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new contact and returns the persisted model.
func (r *Repository) Create(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

// FindByID loads a contact by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	if err := r.db.WithContext(ctx).First(&contact, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// FindByEmail loads a contact by account and email.
func (r *Repository) FindByEmail(ctx context.Context, accountID uuid.UUID, email string) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.WithContext(ctx).
		First(&contact, "account_id = ? AND email = ?", accountID, email).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// ListPage returns one cursor page of contacts for the account.
func (r *Repository) ListPage(ctx context.Context, accountID uuid.UUID, cursor string, limit int) (ContactsPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)

	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return ContactsPageDTO{}, err
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

	var rows []models.Contact
	if err := query.Find(&rows).Error; err != nil {
		return ContactsPageDTO{}, err
	}

	page := ContactsPageDTO{Items: make([]ContactDTO, 0, len(rows))}
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

// Update applies the mutable contact fields.
func (r *Repository) Update(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).
		Model(&models.Contact{}).
		Where("id = ?", contact.ID).
		Updates(map[string]any{
			"email":      contact.Email,
			"phone":      contact.Phone,
			"name":       contact.Name,
			"attributes": contact.Attributes,
		}).Error
}

// Delete removes a contact and its segment memberships.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contact_id = ?", id).Delete(&models.SegmentMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Contact{}, "id = ?", id).Error
	})
}

// CreateSegment inserts a new segment.
func (r *Repository) CreateSegment(ctx context.Context, segment *models.Segment) error {
	return r.db.WithContext(ctx).Create(segment).Error
}

// FindSegmentByID loads a segment by its UUID.
func (r *Repository) FindSegmentByID(ctx context.Context, id uuid.UUID) (*models.Segment, error) {
	var segment models.Segment
	if err := r.db.WithContext(ctx).First(&segment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &segment, nil
}

// ListSegments returns every segment for the account.
func (r *Repository) ListSegments(ctx context.Context, accountID uuid.UUID) ([]models.Segment, error) {
	var segments []models.Segment
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&segments).Error
	return segments, err
}

// AddSegmentMember attaches a contact to a segment. Re-adding an existing
// member is a no-op.
func (r *Repository) AddSegmentMember(ctx context.Context, segmentID, contactID uuid.UUID) error {
	member := models.SegmentMember{SegmentID: segmentID, ContactID: contactID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&member).Error
}

// RemoveSegmentMember detaches a contact from a segment.
func (r *Repository) RemoveSegmentMember(ctx context.Context, segmentID, contactID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("segment_id = ? AND contact_id = ?", segmentID, contactID).
		Delete(&models.SegmentMember{}).Error
}

// ListSegmentContacts returns the contacts attached to a segment.
func (r *Repository) ListSegmentContacts(ctx context.Context, segmentID uuid.UUID) ([]models.Contact, error) {
	var contacts []models.Contact
	err := r.db.WithContext(ctx).
		Joins("JOIN segment_members sm ON sm.contact_id = contacts.id").
		Where("sm.segment_id = ?", segmentID).
		Order("contacts.created_at DESC").
		Find(&contacts).Error
	return contacts, err
}
