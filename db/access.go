// ABOUTME: Ownership and share-based visibility rules
// ABOUTME: Owners see everything they own plus resources shared with them
package db

import (
	"database/sql"
	"fmt"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

// Access is what a user may do with a resource.
type Access int

const (
	AccessNone Access = iota
	AccessView
	AccessEdit
	AccessOwner
)

func (a Access) CanView() bool { return a >= AccessView }
func (a Access) CanEdit() bool { return a >= AccessEdit }

func resourceTable(rt models.ResourceType) (string, error) {
	switch rt {
	case models.ResourceContact:
		return "contacts", nil
	case models.ResourceDeal:
		return "deals", nil
	case models.ResourceActivity:
		return "activities", nil
	}
	return "", fmt.Errorf("unknown resource type %q", rt)
}

// visibleTo returns a condition on alias.id and alias.owner_id matching rows
// owned by or shared with userID.
func visibleTo(rt models.ResourceType, alias, userID string) (string, []any) {
	clause := fmt.Sprintf(`(%[1]s.owner_id = ? OR %[1]s.id IN (SELECT resource_id FROM shares WHERE resource_type = '%[2]s' AND shared_with_user_id = ?))`, alias, rt)
	return clause, []any{userID, userID}
}

// ResourceAccess resolves userID's access to a contact, deal or activity.
// A missing resource reports AccessNone with ErrNotFound.
func ResourceAccess(db *sql.DB, rt models.ResourceType, id, userID string) (Access, error) {
	table, err := resourceTable(rt)
	if err != nil {
		return AccessNone, err
	}

	var ownerID string
	err = db.QueryRow(`SELECT owner_id FROM `+table+` WHERE id = ?`, id).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return AccessNone, ErrNotFound
	}
	if err != nil {
		return AccessNone, err
	}
	if ownerID == userID {
		return AccessOwner, nil
	}

	var perm string
	err = db.QueryRow(`SELECT permission FROM shares WHERE resource_type = ? AND resource_id = ? AND shared_with_user_id = ?`,
		string(rt), id, userID).Scan(&perm)
	if err == sql.ErrNoRows {
		return AccessNone, nil
	}
	if err != nil {
		return AccessNone, err
	}
	if models.Permission(perm) == models.PermissionEdit {
		return AccessEdit, nil
	}
	return AccessView, nil
}

// removeShares drops every share pointing at a deleted resource.
func removeShares(tx *sql.Tx, rt models.ResourceType, id string) error {
	_, err := tx.Exec(`DELETE FROM shares WHERE resource_type = ? AND resource_id = ?`, string(rt), id)
	return err
}
