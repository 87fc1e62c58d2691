package contacts

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarqs/promoterhub-backend/pkg/db/models"
	pkgerrors "github.com/dmarqs/promoterhub-backend/pkg/errors"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
	"github.com/rs/zerolog"
)

type stubStore struct {
	contacts  map[uuid.UUID]*models.Contact
	segments  map[uuid.UUID]*models.Segment
	members   map[uuid.UUID][]uuid.UUID
	createErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		contacts: map[uuid.UUID]*models.Contact{},
		segments: map[uuid.UUID]*models.Segment{},
		members:  map[uuid.UUID][]uuid.UUID{},
	}
}

func (s *stubStore) Create(ctx context.Context, contact *models.Contact) error {
	if s.createErr != nil {
		return s.createErr
	}
	contact.ID = uuid.New()
	s.contacts[contact.ID] = contact
	return nil
}

func (s *stubStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	contact, ok := s.contacts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return contact, nil
}

func (s *stubStore) ListPage(ctx context.Context, accountID uuid.UUID, cursor string, limit int) (ContactsPageDTO, error) {
	page := ContactsPageDTO{}
	for _, contact := range s.contacts {
		if contact.AccountID == accountID {
			page.Items = append(page.Items, *FromModel(contact))
		}
	}
	return page, nil
}

func (s *stubStore) Update(ctx context.Context, contact *models.Contact) error {
	s.contacts[contact.ID] = contact
	return nil
}

func (s *stubStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.contacts, id)
	return nil
}

func (s *stubStore) CreateSegment(ctx context.Context, segment *models.Segment) error {
	segment.ID = uuid.New()
	s.segments[segment.ID] = segment
	return nil
}

func (s *stubStore) FindSegmentByID(ctx context.Context, id uuid.UUID) (*models.Segment, error) {
	segment, ok := s.segments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return segment, nil
}

func (s *stubStore) ListSegments(ctx context.Context, accountID uuid.UUID) ([]models.Segment, error) {
	var out []models.Segment
	for _, segment := range s.segments {
		if segment.AccountID == accountID {
			out = append(out, *segment)
		}
	}
	return out, nil
}

func (s *stubStore) AddSegmentMember(ctx context.Context, segmentID, contactID uuid.UUID) error {
	for _, id := range s.members[segmentID] {
		if id == contactID {
			return nil
		}
	}
	s.members[segmentID] = append(s.members[segmentID], contactID)
	return nil
}

func (s *stubStore) RemoveSegmentMember(ctx context.Context, segmentID, contactID uuid.UUID) error {
	ids := s.members[segmentID]
	for i, id := range ids {
		if id == contactID {
			s.members[segmentID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *stubStore) ListSegmentContacts(ctx context.Context, segmentID uuid.UUID) ([]models.Contact, error) {
	var out []models.Contact
	for _, id := range s.members[segmentID] {
		if contact, ok := s.contacts[id]; ok {
			out = append(out, *contact)
		}
	}
	return out, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "contacts-test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func newTestService(t *testing.T, store *stubStore) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: store, Logger: testLogger()})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func strPtr(s string) *string { return &s }

func TestServiceCreateContact(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	accountID := uuid.New()

	dto, err := svc.Create(context.Background(), accountID, CreateContactDTO{
		Name:  "Ana Costa",
		Email: strPtr("ana@example.com"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if dto.AccountID != accountID {
		t.Fatalf("contact account = %s, want %s", dto.AccountID, accountID)
	}
	if len(store.contacts) != 1 {
		t.Fatalf("stored contacts = %d, want 1", len(store.contacts))
	}
}

func TestServiceCreateContactValidation(t *testing.T) {
	svc := newTestService(t, newStubStore())

	cases := []struct {
		name string
		dto  CreateContactDTO
	}{
		{name: "missing name", dto: CreateContactDTO{Email: strPtr("a@b.com")}},
		{name: "no address", dto: CreateContactDTO{Name: "Ana"}},
		{name: "blank address", dto: CreateContactDTO{Name: "Ana", Email: strPtr("  ")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), uuid.New(), tc.dto)
			var appErr *pkgerrors.Error
			if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("Create() error = %v, want validation error", err)
			}
		})
	}
}

func TestServiceCreateContactDuplicateEmail(t *testing.T) {
	store := newStubStore()
	store.createErr = errors.New(`duplicate key value violates unique constraint "idx_contacts_account_email"`)
	svc := newTestService(t, store)

	_, err := svc.Create(context.Background(), uuid.New(), CreateContactDTO{
		Name:  "Ana",
		Email: strPtr("ana@example.com"),
	})
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("Create() error = %v, want conflict", err)
	}
}

func TestServiceGetContactOwnership(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, CreateContactDTO{Name: "Ana", Email: strPtr("ana@example.com")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Get(context.Background(), owner, created.ID); err != nil {
		t.Fatalf("Get() by owner error = %v", err)
	}

	_, err = svc.Get(context.Background(), uuid.New(), created.ID)
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("Get() by stranger error = %v, want forbidden", err)
	}

	_, err = svc.Get(context.Background(), owner, uuid.New())
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("Get() unknown id error = %v, want not found", err)
	}
}

func TestServiceSegmentMembership(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	accountID := uuid.New()
	ctx := context.Background()

	contact, err := svc.Create(ctx, accountID, CreateContactDTO{Name: "Ana", Email: strPtr("ana@example.com")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	segment, err := svc.CreateSegment(ctx, accountID, "Power users")
	if err != nil {
		t.Fatalf("CreateSegment() error = %v", err)
	}

	if err := svc.AddToSegment(ctx, accountID, segment.ID, contact.ID); err != nil {
		t.Fatalf("AddToSegment() error = %v", err)
	}
	// Re-adding the same member is a no-op.
	if err := svc.AddToSegment(ctx, accountID, segment.ID, contact.ID); err != nil {
		t.Fatalf("AddToSegment() repeat error = %v", err)
	}

	members, err := svc.ListSegmentContacts(ctx, accountID, segment.ID)
	if err != nil {
		t.Fatalf("ListSegmentContacts() error = %v", err)
	}
	if len(members) != 1 || members[0].ID != contact.ID {
		t.Fatalf("segment members = %+v, want the one contact", members)
	}

	if err := svc.RemoveFromSegment(ctx, accountID, segment.ID, contact.ID); err != nil {
		t.Fatalf("RemoveFromSegment() error = %v", err)
	}
	members, err = svc.ListSegmentContacts(ctx, accountID, segment.ID)
	if err != nil {
		t.Fatalf("ListSegmentContacts() error = %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("segment members after removal = %d, want 0", len(members))
	}
}

func TestServiceSegmentOwnership(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	owner := uuid.New()
	segment, err := svc.CreateSegment(ctx, owner, "Churn risk")
	if err != nil {
		t.Fatalf("CreateSegment() error = %v", err)
	}

	_, err = svc.ListSegmentContacts(ctx, uuid.New(), segment.ID)
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("ListSegmentContacts() by stranger error = %v, want forbidden", err)
	}
}

func TestServiceDeleteContact(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	ctx := context.Background()
	accountID := uuid.New()

	contact, err := svc.Create(ctx, accountID, CreateContactDTO{Name: "Ana", Email: strPtr("ana@example.com")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.Delete(ctx, accountID, contact.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(store.contacts) != 0 {
		t.Fatalf("stored contacts = %d, want 0", len(store.contacts))
	}
}
