package contacts

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/pkg/db"
	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
)

// ContactStore is the persistence surface the service operates on.
type ContactStore interface {
	Create(ctx context.Context, contact *models.Contact) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	ListPage(ctx context.Context, accountID uuid.UUID, cursor string, limit int) (ContactsPageDTO, error)
	Update(ctx context.Context, contact *models.Contact) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateSegment(ctx context.Context, segment *models.Segment) error
	FindSegmentByID(ctx context.Context, id uuid.UUID) (*models.Segment, error)
	ListSegments(ctx context.Context, accountID uuid.UUID) ([]models.Segment, error)
	AddSegmentMember(ctx context.Context, segmentID, contactID uuid.UUID) error
	RemoveSegmentMember(ctx context.Context, segmentID, contactID uuid.UUID) error
	ListSegmentContacts(ctx context.Context, segmentID uuid.UUID) ([]models.Contact, error)
}

// ServiceParams groups dependencies for the contacts service.
type ServiceParams struct {
	Repo   ContactStore
	Logger *logger.Logger
}

// Service exposes business rules for contact and segment management.
type Service interface {
	Create(ctx context.Context, accountID uuid.UUID, dto CreateContactDTO) (*ContactDTO, error)
	Get(ctx context.Context, accountID, contactID uuid.UUID) (*ContactDTO, error)
	List(ctx context.Context, accountID uuid.UUID, cursor string, limit int) (ContactsPageDTO, error)
	Update(ctx context.Context, accountID, contactID uuid.UUID, dto CreateContactDTO) (*ContactDTO, error)
	Delete(ctx context.Context, accountID, contactID uuid.UUID) error
	CreateSegment(ctx context.Context, accountID uuid.UUID, name string) (*SegmentDTO, error)
	ListSegments(ctx context.Context, accountID uuid.UUID) ([]SegmentDTO, error)
	AddToSegment(ctx context.Context, accountID, segmentID, contactID uuid.UUID) error
	RemoveFromSegment(ctx context.Context, accountID, segmentID, contactID uuid.UUID) error
	ListSegmentContacts(ctx context.Context, accountID, segmentID uuid.UUID) ([]ContactDTO, error)
}

type service struct {
	repo ContactStore
	logg *logger.Logger
}

// NewService builds a contacts service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

// Create persists a new contact scoped to the account. A contact needs at
// least one reachable address.
func (s *service) Create(ctx context.Context, accountID uuid.UUID, dto CreateContactDTO) (*ContactDTO, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if strings.TrimSpace(dto.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact name is required")
	}
	if emptyPtr(dto.Email) && emptyPtr(dto.Phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact requires an email or phone")
	}

	contact := dto.ToModel(accountID)
	if err := s.repo.Create(ctx, contact); err != nil {
		if db.IsUniqueViolation(err, "idx_contacts_account_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a contact with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create contact")
	}
	return FromModel(contact), nil
}

func (s *service) Get(ctx context.Context, accountID, contactID uuid.UUID) (*ContactDTO, error) {
	contact, err := s.ownedContact(ctx, accountID, contactID)
	if err != nil {
		return nil, err
	}
	return FromModel(contact), nil
}

func (s *service) List(ctx context.Context, accountID uuid.UUID, cursor string, limit int) (ContactsPageDTO, error) {
	if accountID == uuid.Nil {
		return ContactsPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	page, err := s.repo.ListPage(ctx, accountID, cursor, limit)
	if err != nil {
		return ContactsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list contacts")
	}
	return page, nil
}

// Update replaces the contact's mutable fields after an ownership check.
func (s *service) Update(ctx context.Context, accountID, contactID uuid.UUID, dto CreateContactDTO) (*ContactDTO, error) {
	contact, err := s.ownedContact(ctx, accountID, contactID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dto.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact name is required")
	}
	if emptyPtr(dto.Email) && emptyPtr(dto.Phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact requires an email or phone")
	}

	contact.Email = dto.Email
	contact.Phone = dto.Phone
	contact.Name = dto.Name
	contact.Attributes = dto.Attributes
	if err := s.repo.Update(ctx, contact); err != nil {
		if db.IsUniqueViolation(err, "idx_contacts_account_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a contact with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update contact")
	}
	return FromModel(contact), nil
}

func (s *service) Delete(ctx context.Context, accountID, contactID uuid.UUID) error {
	if _, err := s.ownedContact(ctx, accountID, contactID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, contactID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete contact")
	}
	return nil
}

func (s *service) CreateSegment(ctx context.Context, accountID uuid.UUID, name string) (*SegmentDTO, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "segment name is required")
	}
	segment := &models.Segment{AccountID: accountID, Name: name}
	if err := s.repo.CreateSegment(ctx, segment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create segment")
	}
	return SegmentFromModel(segment), nil
}

func (s *service) ListSegments(ctx context.Context, accountID uuid.UUID) ([]SegmentDTO, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	segments, err := s.repo.ListSegments(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list segments")
	}
	out := make([]SegmentDTO, 0, len(segments))
	for i := range segments {
		out = append(out, *SegmentFromModel(&segments[i]))
	}
	return out, nil
}

// AddToSegment attaches a contact to a segment. Both must belong to the
// calling account.
func (s *service) AddToSegment(ctx context.Context, accountID, segmentID, contactID uuid.UUID) error {
	if _, err := s.ownedSegment(ctx, accountID, segmentID); err != nil {
		return err
	}
	if _, err := s.ownedContact(ctx, accountID, contactID); err != nil {
		return err
	}
	if err := s.repo.AddSegmentMember(ctx, segmentID, contactID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add segment member")
	}
	return nil
}

func (s *service) RemoveFromSegment(ctx context.Context, accountID, segmentID, contactID uuid.UUID) error {
	if _, err := s.ownedSegment(ctx, accountID, segmentID); err != nil {
		return err
	}
	if err := s.repo.RemoveSegmentMember(ctx, segmentID, contactID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove segment member")
	}
	return nil
}

func (s *service) ListSegmentContacts(ctx context.Context, accountID, segmentID uuid.UUID) ([]ContactDTO, error) {
	if _, err := s.ownedSegment(ctx, accountID, segmentID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListSegmentContacts(ctx, segmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list segment contacts")
	}
	out := make([]ContactDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) ownedContact(ctx context.Context, accountID, contactID uuid.UUID) (*models.Contact, error) {
	if accountID == uuid.Nil || contactID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id and contact id are required")
	}
	contact, err := s.repo.FindByID(ctx, contactID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load contact")
	}
	if contact.AccountID != accountID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "contact belongs to another account")
	}
	return contact, nil
}

func (s *service) ownedSegment(ctx context.Context, accountID, segmentID uuid.UUID) (*models.Segment, error) {
	if accountID == uuid.Nil || segmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id and segment id are required")
	}
	segment, err := s.repo.FindSegmentByID(ctx, segmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "segment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load segment")
	}
	if segment.AccountID != accountID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "segment belongs to another account")
	}
	return segment, nil
}

func emptyPtr(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
