// ABOUTME: Tests for the XLSX exporter
// ABOUTME: Reads generated workbooks back with excelize
package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

func TestWriteContactsAndDeals(t *testing.T) {
	closeDate := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	contacts := []models.Contact{{Name: "Jane", Email: "jane@example.com", Status: models.StatusHot, Tags: models.TagSet{"vip", "lead"}}}
	deals := []models.Deal{{Title: "Big", StageName: "Lead", Value: 1000, Currency: "USD", Probability: 25, ExpectedCloseDate: &closeDate}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ContactsSheet(contacts), DealsSheet(deals)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Contacts", "Deals"}, f.GetSheetList())

	rows, err := f.GetRows("Contacts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Jane", rows[1][0])
	assert.Equal(t, "hot", rows[1][5])
	assert.Equal(t, "vip, lead", rows[1][6])

	weighted, err := f.GetCellValue("Deals", "F2")
	require.NoError(t, err)
	assert.Equal(t, "250", weighted)
	closeCell, err := f.GetCellValue("Deals", "I2")
	require.NoError(t, err)
	assert.Equal(t, "2026-06-30", closeCell)
}

func TestWriteFileEmptySheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.xlsx")
	require.NoError(t, WriteFile(path, CompaniesSheet(nil)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Companies")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteNothing(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf))
}
