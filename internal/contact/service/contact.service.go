package service

import (
	"bytes"
	"database/sql"
	"errors"
	"io"
	"os"

	"contactbook/internal/contact/model"
	"contactbook/internal/contact/repository"
	"contactbook/pkg/csvio"
	"contactbook/socket"

	"github.com/google/uuid"
)

var (
	ErrBadID    = errors.New("please enter a valid id")
	ErrNotFound = errors.New("no contact found")
	ErrNotOwner = errors.New("you can't modify other people's contacts")
)

// exportFields is the exact column set and order of the CSV surface.
var exportFields = []string{"name", "address", "email", "phone"}

type ContactService struct {
	Repo *repository.ContactRepository
	Hub  *socket.Hub
}

func NewContactService(repo *repository.ContactRepository, hub *socket.Hub) *ContactService {
	return &ContactService{Repo: repo, Hub: hub}
}

// ownedBy is the single authorization predicate: a contact is visible
// and mutable only to its owner.
func ownedBy(callerID string, c model.Contact) bool {
	return c.OwnerID == callerID
}

func (s *ContactService) Create(callerID string, req model.CreateContactRequest) (model.Contact, error) {
	c := model.Contact{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Address: req.Address,
		Email:   req.Email,
		Phone:   req.Phone,
		OwnerID: callerID,
	}
	if err := s.Repo.Insert(&c); err != nil {
		return model.Contact{}, err
	}
	s.notify(callerID, socket.ContactCreatedType, c)
	return c, nil
}

func (s *ContactService) List(callerID string) ([]model.Contact, error) {
	return s.Repo.ListByOwner(callerID)
}

func (s *ContactService) Get(callerID, id string) (model.Contact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Contact{}, ErrBadID
	}
	c, err := s.Repo.GetByID(id)
	if err == sql.ErrNoRows {
		return model.Contact{}, ErrNotFound
	}
	if err != nil {
		return model.Contact{}, err
	}
	// Reads outside the owned set report NotFound rather than
	// Forbidden so the endpoint does not confirm foreign ids exist.
	if !ownedBy(callerID, c) {
		return model.Contact{}, ErrNotFound
	}
	return c, nil
}

// Update replaces every field except id, owner, and creation time.
func (s *ContactService) Update(callerID string, req model.UpdateContactRequest) (model.Contact, error) {
	if _, err := uuid.Parse(req.ID); err != nil {
		return model.Contact{}, ErrBadID
	}
	existing, err := s.Repo.GetByID(req.ID)
	if err == sql.ErrNoRows {
		return model.Contact{}, ErrNotFound
	}
	if err != nil {
		return model.Contact{}, err
	}
	if !ownedBy(callerID, existing) {
		return model.Contact{}, ErrNotOwner
	}

	updated := existing
	updated.Name = req.Name
	updated.Address = req.Address
	updated.Email = req.Email
	updated.Phone = req.Phone
	if err := s.Repo.Update(updated); err != nil {
		return model.Contact{}, err
	}
	s.notify(callerID, socket.ContactUpdatedType, updated)
	return updated, nil
}

// Delete removes one contact and returns it together with the caller's
// refreshed list.
func (s *ContactService) Delete(callerID, id string) (model.Contact, []model.Contact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Contact{}, nil, ErrBadID
	}
	existing, err := s.Repo.GetByID(id)
	if err == sql.ErrNoRows {
		return model.Contact{}, nil, ErrNotFound
	}
	if err != nil {
		return model.Contact{}, nil, err
	}
	if !ownedBy(callerID, existing) {
		return model.Contact{}, nil, ErrNotOwner
	}

	if err := s.Repo.Delete(id); err != nil {
		return model.Contact{}, nil, err
	}
	remaining, err := s.Repo.ListByOwner(callerID)
	if err != nil {
		return model.Contact{}, nil, err
	}
	s.notify(callerID, socket.ContactDeletedType, existing)
	return existing, remaining, nil
}

// DeleteMany removes the intersection of ids and the caller's contacts.
// Ids owned by someone else are skipped silently; an empty set deletes
// nothing and succeeds.
func (s *ContactService) DeleteMany(callerID string, ids []string) (int64, error) {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return 0, ErrBadID
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	deleted, err := s.Repo.DeleteManyOwned(ids, callerID)
	if err != nil {
		return 0, err
	}
	s.notify(callerID, socket.ContactsDeletedType, map[string]int64{"deleted": deleted})
	return deleted, nil
}

// Import spools the upload to a temp file, decodes it as CSV, and bulk
// inserts one contact per row, all owned by the caller. Columns other
// than name/address/email/phone are ignored. The temp file is removed
// on every exit path.
func (s *ContactService) Import(callerID string, upload io.Reader) (int, error) {
	tmp, err := os.CreateTemp("", "contacts-import-*.csv")
	if err != nil {
		return 0, err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, upload); err != nil {
		return 0, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	var contacts []model.Contact
	err = csvio.Decode(tmp, func(row map[string]string) error {
		contacts = append(contacts, model.Contact{
			ID:      uuid.NewString(),
			Name:    row["name"],
			Address: row["address"],
			Email:   row["email"],
			Phone:   row["phone"],
			OwnerID: callerID,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := s.Repo.InsertMany(contacts); err != nil {
		return 0, err
	}
	s.notify(callerID, socket.ContactsImportedType, map[string]int{"imported": len(contacts)})
	return len(contacts), nil
}

// Export encodes the caller's contacts, newest first, as CSV with the
// four exported columns.
func (s *ContactService) Export(callerID string) ([]byte, error) {
	contacts, err := s.Repo.ListByOwner(callerID)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, []string{c.Name, c.Address, c.Email, c.Phone})
	}

	var buf bytes.Buffer
	if err := csvio.Encode(&buf, exportFields, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ContactService) notify(ownerID, eventType string, payload interface{}) {
	if s.Hub != nil {
		s.Hub.Notify(ownerID, eventType, payload)
	}
}
