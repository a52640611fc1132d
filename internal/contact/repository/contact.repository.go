package repository

import (
	"database/sql"
	"strconv"
	"strings"

	"contactbook/internal/contact/model"
	"contactbook/pkg/logger"

	"github.com/lib/pq"
)

type ContactRepository struct {
	DB *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{DB: db}
}

const contactColumns = "id, name, address, email, phone, owner_id, created_at"

func (r *ContactRepository) Insert(c *model.Contact) error {
	err := r.DB.QueryRow(`INSERT INTO contacts (id, name, address, email, phone, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING created_at`,
		c.ID, c.Name, c.Address, c.Email, c.Phone, c.OwnerID,
	).Scan(&c.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to insert contact: %v", err)
	}
	return err
}

// Postgres caps a statement at 65535 bind parameters; at 6 per row
// this keeps each INSERT well under the ceiling.
const insertChunkSize = 1000

// InsertMany writes the contacts in multi-row INSERTs of at most
// insertChunkSize rows each. A failure mid-way leaves earlier chunks
// inserted; each chunk itself applies atomically.
func (r *ContactRepository) InsertMany(contacts []model.Contact) error {
	for start := 0; start < len(contacts); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(contacts) {
			end = len(contacts)
		}
		if err := r.insertChunk(contacts[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *ContactRepository) insertChunk(contacts []model.Contact) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO contacts (id, name, address, email, phone, owner_id, created_at) VALUES ")
	args := make([]interface{}, 0, len(contacts)*6)
	for i, c := range contacts {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		sb.WriteString("($" + strconv.Itoa(base+1) + ", $" + strconv.Itoa(base+2) + ", $" + strconv.Itoa(base+3) +
			", $" + strconv.Itoa(base+4) + ", $" + strconv.Itoa(base+5) + ", $" + strconv.Itoa(base+6) + ", NOW())")
		args = append(args, c.ID, c.Name, c.Address, c.Email, c.Phone, c.OwnerID)
	}

	_, err := r.DB.Exec(sb.String(), args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to bulk insert %d contacts: %v", len(contacts), err)
	}
	return err
}

func (r *ContactRepository) GetByID(id string) (model.Contact, error) {
	var c model.Contact
	err := r.DB.QueryRow("SELECT "+contactColumns+" FROM contacts WHERE id = $1", id).
		Scan(&c.ID, &c.Name, &c.Address, &c.Email, &c.Phone, &c.OwnerID, &c.CreatedAt)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get contact %s: %v", id, err)
	}
	return c, err
}

// ListByOwner returns the owner's contacts, most recently created first.
func (r *ContactRepository) ListByOwner(ownerID string) ([]model.Contact, error) {
	rows, err := r.DB.Query("SELECT "+contactColumns+" FROM contacts WHERE owner_id = $1 ORDER BY created_at DESC", ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list contacts for owner %s: %v", ownerID, err)
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Email, &c.Phone, &c.OwnerID, &c.CreatedAt); err != nil {
			logger.Sugar.Errorf("Failed to scan contact row: %v", err)
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// Update replaces the four mutable fields. Owner and creation time are
// never touched here.
func (r *ContactRepository) Update(c model.Contact) error {
	_, err := r.DB.Exec(`UPDATE contacts SET name = $1, address = $2, email = $3, phone = $4 WHERE id = $5`,
		c.Name, c.Address, c.Email, c.Phone, c.ID)
	if err != nil {
		logger.Sugar.Errorf("Failed to update contact %s: %v", c.ID, err)
	}
	return err
}

func (r *ContactRepository) Delete(id string) error {
	_, err := r.DB.Exec("DELETE FROM contacts WHERE id = $1", id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete contact %s: %v", id, err)
	}
	return err
}

// DeleteManyOwned removes every contact whose id is in ids and whose
// owner is ownerID. Ids owned by someone else fall out of the filter.
func (r *ContactRepository) DeleteManyOwned(ids []string, ownerID string) (int64, error) {
	result, err := r.DB.Exec("DELETE FROM contacts WHERE id = ANY($1) AND owner_id = $2", pq.Array(ids), ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to mass delete contacts for owner %s: %v", ownerID, err)
		return 0, err
	}
	return result.RowsAffected()
}
