// ABOUTME: Note database operations for contact and activity notes
// ABOUTME: Both note tables share one implementation parameterized by parent kind
package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

// NoteKind selects the note table and the resource its parent is checked against.
type NoteKind struct {
	table        string
	parentColumn string
	Resource     models.ResourceType
}

var (
	ContactNotes  = NoteKind{table: "contact_notes", parentColumn: "contact_id", Resource: models.ResourceContact}
	ActivityNotes = NoteKind{table: "activity_notes", parentColumn: "activity_id", Resource: models.ResourceActivity}
)

func (k NoteKind) selectSQL() string {
	return `SELECT n.id, n.` + k.parentColumn + `, n.author_id, COALESCE(u.name, ''), n.content, n.created_at, n.updated_at
		FROM ` + k.table + ` n LEFT JOIN users u ON u.id = n.author_id`
}

func (k NoteKind) scan(row interface{ Scan(...any) error }) (*models.Note, error) {
	n := &models.Note{}
	var parentID string
	if err := row.Scan(&n.ID, &parentID, &n.AuthorID, &n.AuthorName, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if k.Resource == models.ResourceContact {
		n.ContactID = parentID
	} else {
		n.ActivityID = parentID
	}
	return n, nil
}

// ParentID returns the contact or activity id the note hangs off.
func (k NoteKind) ParentID(n *models.Note) string {
	if k.Resource == models.ResourceContact {
		return n.ContactID
	}
	return n.ActivityID
}

func CreateNote(db *sql.DB, k NoteKind, parentID, authorID, content string) (*models.Note, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO `+k.table+` (id, `+k.parentColumn+`, author_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, parentID, authorID, content, now, now)
	if err != nil {
		return nil, err
	}
	return GetNote(db, k, id)
}

func GetNote(db *sql.DB, k NoteKind, id string) (*models.Note, error) {
	n, err := k.scan(db.QueryRow(k.selectSQL()+` WHERE n.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotes returns the notes on parentID, newest first.
func ListNotes(db *sql.DB, k NoteKind, parentID string) ([]models.Note, error) {
	rows, err := db.Query(k.selectSQL()+` WHERE n.`+k.parentColumn+` = ? ORDER BY n.created_at DESC`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		n, err := k.scan(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

func UpdateNote(db *sql.DB, k NoteKind, id, content string) (*models.Note, error) {
	res, err := db.Exec(`UPDATE `+k.table+` SET content = ?, updated_at = ? WHERE id = ?`, content, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return GetNote(db, k, id)
}

func DeleteNote(db *sql.DB, k NoteKind, id string) error {
	res, err := db.Exec(`DELETE FROM `+k.table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
