// ABOUTME: Contact database operations
// ABOUTME: Handles CRUD, tag storage, status changes and filtered paging
package db

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

const contactSelect = `
	SELECT c.id, c.name, c.email, c.phone, c.position, c.company_id, COALESCE(co.name, ''),
		c.status, c.notes, c.owner_id, c.created_at, c.updated_at
	FROM contacts c LEFT JOIN companies co ON co.id = c.company_id`

func scanContact(row interface{ Scan(...any) error }) (*models.Contact, error) {
	c := &models.Contact{}
	var companyID sql.NullString
	var status string
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Position, &companyID, &c.Company,
		&status, &c.Notes, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.CompanyID = companyID.String
	c.Status = models.ContactStatus(status)
	c.Tags = models.TagSet{}
	return c, nil
}

func CreateContact(db *sql.DB, contact *models.Contact) error {
	contact.ID = uuid.NewString()
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	if !contact.Status.Valid() {
		contact.Status = models.DefaultContactStatus
	}
	contact.Tags = models.NormalizeTags(contact.Tags)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`
		INSERT INTO contacts (id, name, email, phone, position, company_id, status, notes, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, contact.ID, contact.Name, contact.Email, contact.Phone, contact.Position, nullString(contact.CompanyID),
		string(contact.Status), contact.Notes, contact.OwnerID, contact.CreatedAt, contact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	if err := writeTags(tx, contact.ID, contact.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

func writeTags(tx *sql.Tx, contactID string, tags models.TagSet) error {
	if _, err := tx.Exec(`DELETE FROM contact_tags WHERE contact_id = ?`, contactID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	for _, tag := range tags {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO contact_tags (contact_id, tag) VALUES (?, ?)`, contactID, tag); err != nil {
			return fmt.Errorf("failed to insert tag: %w", err)
		}
	}
	return nil
}

func GetContact(db *sql.DB, id string) (*models.Contact, error) {
	c, err := scanContact(db.QueryRow(contactSelect+` WHERE c.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := attachTags(db, []*models.Contact{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// attachTags loads tags for contacts in one query. Rows from the contact
// query must already be closed: the pool holds a single connection.
func attachTags(db *sql.DB, contacts []*models.Contact) error {
	if len(contacts) == 0 {
		return nil
	}
	byID := make(map[string]*models.Contact, len(contacts))
	args := make([]any, 0, len(contacts))
	for _, c := range contacts {
		byID[c.ID] = c
		args = append(args, c.ID)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	rows, err := db.Query(`SELECT contact_id, tag FROM contact_tags WHERE contact_id IN (`+placeholders+`) ORDER BY rowid`, args...)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return err
		}
		if c, ok := byID[id]; ok {
			c.Tags = append(c.Tags, tag)
		}
	}
	return rows.Err()
}

type ContactQuery struct {
	ListQuery
	Status    string
	Tags      []string
	CompanyID string
}

// ListContacts pages through contacts visible to userID. Every tag in q.Tags
// must be present on a contact for it to match.
func ListContacts(db *sql.DB, userID string, q ContactQuery) ([]models.Contact, int, error) {
	q.Normalize()
	w := &where{}
	clause, args := visibleTo(models.ResourceContact, "c", userID)
	w.add(clause, args...)
	if q.Search != "" {
		p := likePattern(q.Search)
		w.add(`(LOWER(c.name) LIKE ? OR LOWER(c.email) LIKE ? OR LOWER(c.position) LIKE ? OR LOWER(COALESCE(co.name, '')) LIKE ?)`, p, p, p, p)
	}
	if q.Status != "" {
		w.add(`c.status = ?`, q.Status)
	}
	if q.CompanyID != "" {
		w.add(`c.company_id = ?`, q.CompanyID)
	}
	for _, tag := range models.NormalizeTags(q.Tags) {
		w.add(`EXISTS (SELECT 1 FROM contact_tags ct WHERE ct.contact_id = c.id AND ct.tag = ?)`, tag)
	}

	total, err := countRows(db, "FROM contacts c LEFT JOIN companies co ON co.id = c.company_id", w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(contactSelect+w.String()+` ORDER BY c.created_at DESC LIMIT ? OFFSET ?`,
		append(w.args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	var list []*models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, 0, err
	}
	rows.Close()

	if err := attachTags(db, list); err != nil {
		return nil, 0, err
	}
	contacts := make([]models.Contact, 0, len(list))
	for _, c := range list {
		contacts = append(contacts, *c)
	}
	return contacts, total, nil
}

// UpdateContact writes every editable field of contact.
func UpdateContact(db *sql.DB, contact *models.Contact) error {
	contact.UpdatedAt = time.Now().UTC()
	contact.Tags = models.NormalizeTags(contact.Tags)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.Exec(`
		UPDATE contacts
		SET name = ?, email = ?, phone = ?, position = ?, company_id = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, contact.Name, contact.Email, contact.Phone, contact.Position, nullString(contact.CompanyID),
		string(contact.Status), contact.Notes, contact.UpdatedAt, contact.ID)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	if err := writeTags(tx, contact.ID, contact.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

func UpdateContactStatus(db *sql.DB, id string, status models.ContactStatus) error {
	res, err := db.Exec(`UPDATE contacts SET status = ?, updated_at = ? WHERE id = ?`, string(status), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func DeleteContact(db *sql.DB, id string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := removeShares(tx, models.ResourceContact, id); err != nil {
		return fmt.Errorf("failed to delete shares: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

// ContactTags returns the distinct tags on contacts visible to userID.
func ContactTags(db *sql.DB, userID string) ([]string, error) {
	clause, args := visibleTo(models.ResourceContact, "c", userID)
	rows, err := db.Query(`SELECT DISTINCT ct.tag FROM contact_tags ct JOIN contacts c ON c.id = ct.contact_id WHERE `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	tags = models.NormalizeTags(tags)
	sort.Slice(tags, func(i, j int) bool { return strings.ToLower(tags[i]) < strings.ToLower(tags[j]) })
	return tags, rows.Err()
}
