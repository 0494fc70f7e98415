// ABOUTME: Company database operations
// ABOUTME: Companies belong to their creator and carry live contact and deal counts
package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

const companySelect = `
	SELECT co.id, co.name, co.industry, co.website, co.phone, co.address, co.notes, co.owner_id,
		(SELECT COUNT(*) FROM contacts c WHERE c.company_id = co.id),
		(SELECT COUNT(*) FROM deals d WHERE d.company_id = co.id),
		co.created_at, co.updated_at
	FROM companies co`

func scanCompany(row interface{ Scan(...any) error }) (*models.Company, error) {
	c := &models.Company{}
	err := row.Scan(&c.ID, &c.Name, &c.Industry, &c.Website, &c.Phone, &c.Address, &c.Notes, &c.OwnerID,
		&c.ContactCount, &c.DealCount, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func CreateCompany(db *sql.DB, company *models.Company) error {
	company.ID = uuid.NewString()
	now := time.Now().UTC()
	company.CreatedAt = now
	company.UpdatedAt = now

	_, err := db.Exec(`
		INSERT INTO companies (id, name, industry, website, phone, address, notes, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, company.ID, company.Name, company.Industry, company.Website, company.Phone, company.Address, company.Notes,
		company.OwnerID, company.CreatedAt, company.UpdatedAt)
	return err
}

func GetCompany(db *sql.DB, id string) (*models.Company, error) {
	c, err := scanCompany(db.QueryRow(companySelect+` WHERE co.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

type CompanyQuery struct {
	ListQuery
	Industry string
}

func ListCompanies(db *sql.DB, userID string, q CompanyQuery) ([]models.Company, int, error) {
	q.Normalize()
	w := &where{}
	w.add(`co.owner_id = ?`, userID)
	if q.Search != "" {
		p := likePattern(q.Search)
		w.add(`(LOWER(co.name) LIKE ? OR LOWER(co.industry) LIKE ? OR LOWER(co.website) LIKE ?)`, p, p, p)
	}
	if q.Industry != "" {
		w.add(`co.industry = ? COLLATE NOCASE`, q.Industry)
	}

	total, err := countRows(db, "FROM companies co", w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(companySelect+w.String()+` ORDER BY co.name COLLATE NOCASE LIMIT ? OFFSET ?`,
		append(w.args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	companies := []models.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, *c)
	}
	return companies, total, rows.Err()
}

func UpdateCompany(db *sql.DB, company *models.Company) error {
	company.UpdatedAt = time.Now().UTC()
	res, err := db.Exec(`
		UPDATE companies
		SET name = ?, industry = ?, website = ?, phone = ?, address = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, company.Name, company.Industry, company.Website, company.Phone, company.Address, company.Notes,
		company.UpdatedAt, company.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteCompany refuses while any contact still references the company.
func DeleteCompany(db *sql.DB, id string) error {
	var contacts int
	if err := db.QueryRow(`SELECT COUNT(*) FROM contacts WHERE company_id = ?`, id).Scan(&contacts); err != nil {
		return err
	}
	if contacts > 0 {
		return ErrCompanyHasContacts
	}
	res, err := db.Exec(`DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
