// ABOUTME: Activity database operations
// ABOUTME: Activities are calls, emails, meetings, notes or tasks with optional due dates
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

const activitySelect = `
	SELECT a.id, a.type, a.subject, a.description, a.due_date, a.completed,
		a.contact_id, a.company_id, a.deal_id, a.owner_id, a.created_at, a.updated_at
	FROM activities a`

func scanActivity(row interface{ Scan(...any) error }) (*models.Activity, error) {
	a := &models.Activity{}
	var typ string
	var due sql.NullTime
	var contactID, companyID, dealID sql.NullString
	if err := row.Scan(&a.ID, &typ, &a.Subject, &a.Description, &due, &a.Completed,
		&contactID, &companyID, &dealID, &a.OwnerID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Type = models.ActivityType(typ)
	if due.Valid {
		t := due.Time
		a.DueDate = &t
	}
	a.ContactID = contactID.String
	a.CompanyID = companyID.String
	a.DealID = dealID.String
	return a, nil
}

func CreateActivity(db *sql.DB, a *models.Activity) error {
	a.ID = uuid.NewString()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := db.Exec(`
		INSERT INTO activities (id, type, subject, description, due_date, completed, contact_id, company_id, deal_id, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, string(a.Type), a.Subject, a.Description, nullTime(a.DueDate), a.Completed,
		nullString(a.ContactID), nullString(a.CompanyID), nullString(a.DealID), a.OwnerID, a.CreatedAt, a.UpdatedAt)
	return err
}

func GetActivity(db *sql.DB, id string) (*models.Activity, error) {
	a, err := scanActivity(db.QueryRow(activitySelect+` WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

type ActivityQuery struct {
	ListQuery
	Type      string
	Completed *bool
	ContactID string
	CompanyID string
	DealID    string
}

// ListActivities orders pending work first, then by due date.
func ListActivities(db *sql.DB, userID string, q ActivityQuery) ([]models.Activity, int, error) {
	q.Normalize()
	w := &where{}
	clause, args := visibleTo(models.ResourceActivity, "a", userID)
	w.add(clause, args...)
	if q.Search != "" {
		p := likePattern(q.Search)
		w.add(`(LOWER(a.subject) LIKE ? OR LOWER(a.description) LIKE ?)`, p, p)
	}
	if q.Type != "" {
		w.add(`a.type = ?`, q.Type)
	}
	if q.Completed != nil {
		w.add(`a.completed = ?`, *q.Completed)
	}
	if q.ContactID != "" {
		w.add(`a.contact_id = ?`, q.ContactID)
	}
	if q.CompanyID != "" {
		w.add(`a.company_id = ?`, q.CompanyID)
	}
	if q.DealID != "" {
		w.add(`a.deal_id = ?`, q.DealID)
	}

	total, err := countRows(db, "FROM activities a", w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(activitySelect+w.String()+
		` ORDER BY a.completed, a.due_date IS NULL, a.due_date, a.created_at DESC LIMIT ? OFFSET ?`,
		append(w.args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, err
		}
		activities = append(activities, *a)
	}
	return activities, total, rows.Err()
}

func UpdateActivity(db *sql.DB, a *models.Activity) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := db.Exec(`
		UPDATE activities
		SET type = ?, subject = ?, description = ?, due_date = ?, completed = ?, contact_id = ?, company_id = ?, deal_id = ?, updated_at = ?
		WHERE id = ?
	`, string(a.Type), a.Subject, a.Description, nullTime(a.DueDate), a.Completed,
		nullString(a.ContactID), nullString(a.CompanyID), nullString(a.DealID), a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func DeleteActivity(db *sql.DB, id string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := removeShares(tx, models.ResourceActivity, id); err != nil {
		return fmt.Errorf("failed to delete shares: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}
