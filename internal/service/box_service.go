package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/moveout-labs/moveout-backend/internal/domain"
	"github.com/moveout-labs/moveout-backend/internal/observability"
	"github.com/moveout-labs/moveout-backend/internal/repository"
)

// BoxService manages moving boxes, their contents, insurance labels and
// shared contacts. Everything here is scoped to an owner; admins may touch
// any owner's data.
type BoxService interface {
	CreateBox(ctx context.Context, caller Caller, name, description string) (*domain.Box, error)
	ListBoxes(ctx context.Context, caller Caller) ([]domain.Box, error)
	GetBox(ctx context.Context, caller Caller, boxID uint) (*domain.Box, []domain.BoxContent, error)
	UpdateBox(ctx context.Context, caller Caller, boxID uint, name, description string) (*domain.Box, error)
	// SetBoxDesign records an uploaded label design and the QR scan target
	// printed on it. A previous design object is removed best-effort.
	SetBoxDesign(ctx context.Context, caller Caller, boxID uint, objectKey, qrCodeURL string) (*domain.Box, error)
	DeleteBox(ctx context.Context, caller Caller, boxID uint) error
	AddContent(ctx context.Context, caller Caller, boxID uint, contentType, value, objectKey string) (*domain.BoxContent, error)
	DeleteContent(ctx context.Context, caller Caller, contentID uint) error
	CreateLabel(ctx context.Context, caller Caller, label *domain.InsuranceLabel) (*domain.InsuranceLabel, error)
	ListLabels(ctx context.Context, caller Caller) ([]domain.InsuranceLabel, error)
	DeleteLabel(ctx context.Context, caller Caller, labelID uint) error
	AddContact(ctx context.Context, caller Caller, email, name string) (*domain.Contact, error)
	ListContacts(ctx context.Context, caller Caller) ([]domain.Contact, error)
}

type boxService struct {
	boxes    repository.BoxRepository
	contents repository.BoxContentRepository
	labels   repository.InsuranceLabelRepository
	contacts repository.ContactRepository
	storage  StorageService
}

func NewBoxService(
	boxes repository.BoxRepository,
	contents repository.BoxContentRepository,
	labels repository.InsuranceLabelRepository,
	contacts repository.ContactRepository,
	storage StorageService,
) BoxService {
	return &boxService{
		boxes:    boxes,
		contents: contents,
		labels:   labels,
		contacts: contacts,
		storage:  storage,
	}
}

func (s *boxService) ownedBox(caller Caller, boxID uint) (*domain.Box, error) {
	if !caller.authenticated() {
		return nil, ErrUnauthenticated
	}
	box, err := s.boxes.FindByID(boxID)
	if err != nil {
		if errors.Is(err, repository.ErrBoxNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !caller.CanManage(box.OwnerID) {
		return nil, ErrPermissionDenied
	}
	return box, nil
}

func (s *boxService) CreateBox(ctx context.Context, caller Caller, name, description string) (*domain.Box, error) {
	if !caller.authenticated() {
		return nil, ErrUnauthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidArgument
	}
	box := &domain.Box{OwnerID: caller.UserID, Name: name, Description: description}
	if err := s.boxes.Create(box); err != nil {
		observability.RecordBoxOperation(ctx, "create", "error")
		return nil, err
	}
	observability.RecordBoxOperation(ctx, "create", "success")
	return box, nil
}

func (s *boxService) ListBoxes(ctx context.Context, caller Caller) ([]domain.Box, error) {
	if !caller.authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.boxes.ListByOwner(caller.UserID)
}

func (s *boxService) GetBox(ctx context.Context, caller Caller, boxID uint) (*domain.Box, []domain.BoxContent, error) {
	box, err := s.ownedBox(caller, boxID)
	if err != nil {
		return nil, nil, err
	}
	contents, err := s.contents.ListByBox(box.ID)
	if err != nil {
		return nil, nil, err
	}
	return box, contents, nil
}

func (s *boxService) UpdateBox(ctx context.Context, caller Caller, boxID uint, name, description string) (*domain.Box, error) {
	box, err := s.ownedBox(caller, boxID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidArgument
	}
	box.Name = name
	box.Description = description
	if err := s.boxes.Update(box); err != nil {
		observability.RecordBoxOperation(ctx, "update", "error")
		return nil, err
	}
	observability.RecordBoxOperation(ctx, "update", "success")
	return box, nil
}

func (s *boxService) SetBoxDesign(ctx context.Context, caller Caller, boxID uint, objectKey, qrCodeURL string) (*domain.Box, error) {
	box, err := s.ownedBox(caller, boxID)
	if err != nil {
		return nil, err
	}
	if objectKey == "" {
		return nil, ErrInvalidArgument
	}
	if box.DesignObjectKey != "" && box.DesignObjectKey != objectKey {
		if err := s.storage.DeleteObject(ctx, box.OwnerID, box.DesignObjectKey); err != nil {
			slog.WarnContext(ctx, "stale design cleanup failed", "box_id", box.ID, "object_key", box.DesignObjectKey, "error", err)
		}
	}
	box.DesignObjectKey = objectKey
	box.QRCodeURL = qrCodeURL
	if err := s.boxes.Update(box); err != nil {
		observability.RecordBoxOperation(ctx, "set_design", "error")
		return nil, err
	}
	observability.RecordBoxOperation(ctx, "set_design", "success")
	return box, nil
}

func (s *boxService) DeleteBox(ctx context.Context, caller Caller, boxID uint) error {
	box, err := s.ownedBox(caller, boxID)
	if err != nil {
		return err
	}

	if box.DesignObjectKey != "" {
		if err := s.storage.DeleteObject(ctx, box.OwnerID, box.DesignObjectKey); err != nil {
			slog.WarnContext(ctx, "box design cleanup failed", "box_id", box.ID, "object_key", box.DesignObjectKey, "error", err)
		}
	}

	// Stored objects referenced by the contents are removed best-effort.
	contents, err := s.contents.ListByBox(box.ID)
	if err != nil {
		return err
	}
	for _, c := range contents {
		if c.ObjectKey == "" {
			continue
		}
		if err := s.storage.DeleteObject(ctx, box.OwnerID, c.ObjectKey); err != nil {
			slog.WarnContext(ctx, "box media cleanup failed", "box_id", box.ID, "object_key", c.ObjectKey, "error", err)
		}
	}

	if _, err := s.contents.DeleteByBox(box.ID); err != nil {
		observability.RecordBoxOperation(ctx, "delete", "error")
		return err
	}
	if err := s.boxes.DeleteByID(box.ID); err != nil {
		observability.RecordBoxOperation(ctx, "delete", "error")
		return err
	}
	observability.RecordBoxOperation(ctx, "delete", "success")
	return nil
}

func (s *boxService) AddContent(ctx context.Context, caller Caller, boxID uint, contentType, value, objectKey string) (*domain.BoxContent, error) {
	box, err := s.ownedBox(caller, boxID)
	if err != nil {
		return nil, err
	}
	if !domain.ValidContentType(contentType) {
		return nil, ErrInvalidArgument
	}
	if contentType == domain.ContentTypeText && strings.TrimSpace(value) == "" {
		return nil, ErrInvalidArgument
	}
	content := &domain.BoxContent{
		BoxID:     box.ID,
		OwnerID:   box.OwnerID,
		Type:      contentType,
		Value:     value,
		ObjectKey: objectKey,
	}
	if err := s.contents.Create(content); err != nil {
		observability.RecordBoxOperation(ctx, "add_content", "error")
		return nil, err
	}
	observability.RecordBoxOperation(ctx, "add_content", "success")
	return content, nil
}

func (s *boxService) DeleteContent(ctx context.Context, caller Caller, contentID uint) error {
	if !caller.authenticated() {
		return ErrUnauthenticated
	}
	content, err := s.contents.FindByID(contentID)
	if err != nil {
		if errors.Is(err, repository.ErrContentNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !caller.CanManage(content.OwnerID) {
		return ErrPermissionDenied
	}
	if content.ObjectKey != "" {
		if err := s.storage.DeleteObject(ctx, content.OwnerID, content.ObjectKey); err != nil {
			slog.WarnContext(ctx, "content media cleanup failed", "content_id", contentID, "error", err)
		}
	}
	return s.contents.DeleteByID(contentID)
}

func (s *boxService) CreateLabel(ctx context.Context, caller Caller, label *domain.InsuranceLabel) (*domain.InsuranceLabel, error) {
	if !caller.authenticated() {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(label.ItemName) == "" || label.InsuredValue < 0 {
		return nil, ErrInvalidArgument
	}
	label.OwnerID = caller.UserID
	if label.Currency == "" {
		label.Currency = "SEK"
	}
	if err := s.labels.Create(label); err != nil {
		return nil, err
	}
	return label, nil
}

func (s *boxService) ListLabels(ctx context.Context, caller Caller) ([]domain.InsuranceLabel, error) {
	if !caller.authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.labels.ListByOwner(caller.UserID)
}

func (s *boxService) DeleteLabel(ctx context.Context, caller Caller, labelID uint) error {
	if !caller.authenticated() {
		return ErrUnauthenticated
	}
	label, err := s.labels.FindByID(labelID)
	if err != nil {
		if errors.Is(err, repository.ErrLabelNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !caller.CanManage(label.OwnerID) {
		return ErrPermissionDenied
	}
	return s.labels.DeleteByID(labelID)
}

func (s *boxService) AddContact(ctx context.Context, caller Caller, email, name string) (*domain.Contact, error) {
	if !caller.authenticated() {
		return nil, ErrUnauthenticated
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidArgument
	}
	contact := &domain.Contact{OwnerID: caller.UserID, Email: email, Name: strings.TrimSpace(name)}
	if err := s.contacts.Create(contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *boxService) ListContacts(ctx context.Context, caller Caller) ([]domain.Contact, error) {
	if !caller.authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.contacts.ListByOwner(caller.UserID)
}
