package ocr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bill.csv")
	require.NoError(t, os.WriteFile(path, []byte("Description,Amount\nWidgets,500.00\nGadgets,680.00\n"), 0o644))

	text, err := readCSV(path)
	require.NoError(t, err)
	assert.Equal(t, "Description\tAmount\nWidgets\t500.00\nGadgets\t680.00\n", text)
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bill.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "ACME Traders"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Grand Total"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "1180.00"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	text, err := readXLSX(path)
	require.NoError(t, err)
	assert.Contains(t, text, "ACME Traders")
	assert.Contains(t, text, "Grand Total\t1180.00")
}
