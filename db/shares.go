// ABOUTME: Share database operations
// ABOUTME: A resource may be shared with a given user at most once
package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

const shareSelect = `
	SELECT s.id, s.resource_type, s.resource_id,
		CASE s.resource_type
			WHEN 'contact' THEN (SELECT name FROM contacts WHERE id = s.resource_id)
			WHEN 'deal' THEN (SELECT title FROM deals WHERE id = s.resource_id)
			WHEN 'activity' THEN (SELECT subject FROM activities WHERE id = s.resource_id)
		END,
		s.owner_id, COALESCE(o.name, ''),
		s.shared_with_user_id, COALESCE(w.name, ''), COALESCE(w.email, ''),
		s.permission, s.message, s.created_at
	FROM shares s
	LEFT JOIN users o ON o.id = s.owner_id
	LEFT JOIN users w ON w.id = s.shared_with_user_id`

func scanShare(row interface{ Scan(...any) error }) (*models.Share, error) {
	s := &models.Share{}
	var rt, perm string
	var name sql.NullString
	if err := row.Scan(&s.ID, &rt, &s.ResourceID, &name, &s.OwnerID, &s.OwnerName,
		&s.SharedWithUserID, &s.SharedWithName, &s.SharedWithEmail, &perm, &s.Message, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.ResourceType = models.ResourceType(rt)
	s.ResourceName = name.String
	s.Permission = models.Permission(perm)
	return s, nil
}

// CreateShare stores a share. A second share of the same resource with the
// same user fails with ErrDuplicateShare.
func CreateShare(db *sql.DB, share *models.Share) error {
	share.ID = uuid.NewString()
	share.CreatedAt = time.Now().UTC()

	_, err := db.Exec(`
		INSERT INTO shares (id, resource_type, resource_id, owner_id, shared_with_user_id, permission, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, share.ID, string(share.ResourceType), share.ResourceID, share.OwnerID, share.SharedWithUserID,
		string(share.Permission), share.Message, share.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateShare
	}
	return err
}

func GetShare(db *sql.DB, id string) (*models.Share, error) {
	s, err := scanShare(db.QueryRow(shareSelect+` WHERE s.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func listShares(db *sql.DB, column, userID string) ([]models.Share, error) {
	rows, err := db.Query(shareSelect+` WHERE s.`+column+` = ? ORDER BY s.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shares := []models.Share{}
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, *s)
	}
	return shares, rows.Err()
}

// SharesByOwner lists shares granted by userID.
func SharesByOwner(db *sql.DB, userID string) ([]models.Share, error) {
	return listShares(db, "owner_id", userID)
}

// SharesWithUser lists shares granted to userID.
func SharesWithUser(db *sql.DB, userID string) ([]models.Share, error) {
	return listShares(db, "shared_with_user_id", userID)
}

// DeleteShare revokes a share owned by ownerID.
func DeleteShare(db *sql.DB, id, ownerID string) error {
	s, err := GetShare(db, id)
	if err != nil {
		return err
	}
	if s == nil {
		return ErrNotFound
	}
	if s.OwnerID != ownerID {
		return ErrForbidden
	}
	_, err = db.Exec(`DELETE FROM shares WHERE id = ?`, id)
	return err
}
