// ABOUTME: XLSX export of contacts, companies, deals and activities
// ABOUTME: Each resource becomes one sheet with a bold header row
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

// Sheet is one worksheet: a header row then data rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

func ContactsSheet(contacts []models.Contact) Sheet {
	s := Sheet{Name: "Contacts", Header: []string{"Name", "Email", "Phone", "Position", "Company", "Status", "Tags", "Notes", "Created"}}
	for _, c := range contacts {
		s.Rows = append(s.Rows, []any{c.Name, c.Email, c.Phone, c.Position, c.Company, string(c.Status),
			strings.Join(c.Tags, ", "), c.Notes, formatTime(&c.CreatedAt)})
	}
	return s
}

func CompaniesSheet(companies []models.Company) Sheet {
	s := Sheet{Name: "Companies", Header: []string{"Name", "Industry", "Website", "Phone", "Address", "Contacts", "Deals", "Notes"}}
	for _, c := range companies {
		s.Rows = append(s.Rows, []any{c.Name, c.Industry, c.Website, c.Phone, c.Address, c.ContactCount, c.DealCount, c.Notes})
	}
	return s
}

func DealsSheet(deals []models.Deal) Sheet {
	s := Sheet{Name: "Deals", Header: []string{"Title", "Stage", "Value", "Currency", "Probability", "Weighted", "Contact", "Company", "Expected Close"}}
	for _, d := range deals {
		s.Rows = append(s.Rows, []any{d.Title, d.StageName, d.Value, d.Currency, d.Probability, d.WeightedValue(),
			d.ContactName, d.CompanyName, formatDate(d.ExpectedCloseDate)})
	}
	return s
}

func ActivitiesSheet(activities []models.Activity) Sheet {
	s := Sheet{Name: "Activities", Header: []string{"Type", "Subject", "Due", "Completed", "Description"}}
	for _, a := range activities {
		done := "no"
		if a.Completed {
			done = "yes"
		}
		s.Rows = append(s.Rows, []any{string(a.Type), a.Subject, formatTime(a.DueDate), done, a.Description})
	}
	return s
}

// Write renders sheets into one workbook on w.
func Write(w io.Writer, sheets ...Sheet) error {
	f, err := build(sheets)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteFile renders sheets into a workbook at path.
func WriteFile(path string, sheets ...Sheet) error {
	f, err := build(sheets)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func build(sheets []Sheet) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("nothing to export")
	}

	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				_ = f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := writeSheet(f, s, header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write sheet %s: %w", s.Name, err)
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, s Sheet, headerStyle int) error {
	row := make([]any, len(s.Header))
	for i, h := range s.Header {
		row[i] = h
	}
	if err := f.SetSheetRow(s.Name, "A1", &row); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(s.Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.Name, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, r := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.Name, cell, &r); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(s.Header))
	if err != nil {
		return err
	}
	return f.SetColWidth(s.Name, "A", lastCol, 18)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
