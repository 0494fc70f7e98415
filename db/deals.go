// ABOUTME: Deal and pipeline stage database operations
// ABOUTME: Deals join their stage, contact and company names for display
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

const dealSelect = `
	SELECT d.id, d.title, d.value, d.currency, d.stage_id, COALESCE(s.name, ''),
		d.contact_id, COALESCE(c.name, ''), d.company_id, COALESCE(co.name, ''),
		d.probability, d.expected_close_date, d.notes, d.owner_id, d.created_at, d.updated_at
	FROM deals d
	LEFT JOIN deal_stages s ON s.id = d.stage_id
	LEFT JOIN contacts c ON c.id = d.contact_id
	LEFT JOIN companies co ON co.id = d.company_id`

func scanDeal(row interface{ Scan(...any) error }) (*models.Deal, error) {
	d := &models.Deal{}
	var contactID, companyID sql.NullString
	var closeDate sql.NullTime
	if err := row.Scan(&d.ID, &d.Title, &d.Value, &d.Currency, &d.StageID, &d.StageName,
		&contactID, &d.ContactName, &companyID, &d.CompanyName,
		&d.Probability, &closeDate, &d.Notes, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.ContactID = contactID.String
	d.CompanyID = companyID.String
	if closeDate.Valid {
		t := closeDate.Time
		d.ExpectedCloseDate = &t
	}
	return d, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func ListStages(db *sql.DB) ([]models.DealStage, error) {
	rows, err := db.Query(`SELECT id, name, order_index FROM deal_stages ORDER BY order_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := []models.DealStage{}
	for rows.Next() {
		var s models.DealStage
		if err := rows.Scan(&s.ID, &s.Name, &s.OrderIndex); err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func stageExists(db *sql.DB, id string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM deal_stages WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

func CreateDeal(db *sql.DB, deal *models.Deal) error {
	ok, err := stageExists(db, deal.StageID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("unknown stage %q: %w", deal.StageID, ErrNotFound)
	}

	deal.ID = uuid.NewString()
	now := time.Now().UTC()
	deal.CreatedAt = now
	deal.UpdatedAt = now
	if deal.Currency == "" {
		deal.Currency = models.DefaultCurrency
	}

	_, err = db.Exec(`
		INSERT INTO deals (id, title, value, currency, stage_id, contact_id, company_id, probability, expected_close_date, notes, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, deal.ID, deal.Title, deal.Value, deal.Currency, deal.StageID, nullString(deal.ContactID), nullString(deal.CompanyID),
		deal.Probability, nullTime(deal.ExpectedCloseDate), deal.Notes, deal.OwnerID, deal.CreatedAt, deal.UpdatedAt)
	return err
}

func GetDeal(db *sql.DB, id string) (*models.Deal, error) {
	d, err := scanDeal(db.QueryRow(dealSelect+` WHERE d.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

type DealQuery struct {
	ListQuery
	StageID   string
	ContactID string
	CompanyID string
}

func ListDeals(db *sql.DB, userID string, q DealQuery) ([]models.Deal, int, error) {
	q.Normalize()
	w := &where{}
	clause, args := visibleTo(models.ResourceDeal, "d", userID)
	w.add(clause, args...)
	if q.Search != "" {
		p := likePattern(q.Search)
		w.add(`(LOWER(d.title) LIKE ? OR LOWER(COALESCE(c.name, '')) LIKE ? OR LOWER(COALESCE(co.name, '')) LIKE ?)`, p, p, p)
	}
	if q.StageID != "" {
		w.add(`d.stage_id = ?`, q.StageID)
	}
	if q.ContactID != "" {
		w.add(`d.contact_id = ?`, q.ContactID)
	}
	if q.CompanyID != "" {
		w.add(`d.company_id = ?`, q.CompanyID)
	}

	total, err := countRows(db, `FROM deals d
		LEFT JOIN contacts c ON c.id = d.contact_id
		LEFT JOIN companies co ON co.id = d.company_id`, w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(dealSelect+w.String()+` ORDER BY d.updated_at DESC LIMIT ? OFFSET ?`,
		append(w.args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, 0, err
		}
		deals = append(deals, *d)
	}
	return deals, total, rows.Err()
}

func UpdateDeal(db *sql.DB, deal *models.Deal) error {
	ok, err := stageExists(db, deal.StageID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("unknown stage %q: %w", deal.StageID, ErrNotFound)
	}

	deal.UpdatedAt = time.Now().UTC()
	res, err := db.Exec(`
		UPDATE deals
		SET title = ?, value = ?, currency = ?, stage_id = ?, contact_id = ?, company_id = ?, probability = ?,
			expected_close_date = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, deal.Title, deal.Value, deal.Currency, deal.StageID, nullString(deal.ContactID), nullString(deal.CompanyID),
		deal.Probability, nullTime(deal.ExpectedCloseDate), deal.Notes, deal.UpdatedAt, deal.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func DeleteDeal(db *sql.DB, id string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := removeShares(tx, models.ResourceDeal, id); err != nil {
		return fmt.Errorf("failed to delete shares: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM deals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}
