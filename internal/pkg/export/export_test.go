package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/smartscan-app/smartscan/app/models"
)

func sampleRecords() []models.ReceiptRecord {
	return []models.ReceiptRecord{
		{ID: "1", Date: "2025-03-01", VendorName: "セブンイレブン", TotalAmount: 1234, Category: "食費"},
		{ID: "2", Date: "2025-03-05", VendorName: "ヤマダ電機", TotalAmount: 29800, Category: models.DefaultCategory},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "missing UTF-8 BOM")

	rows, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"日付", "店舗名", "金額", "カテゴリ"}, rows[0])
	assert.Equal(t, []string{"2025-03-01", "セブンイレブン", "1234", "食費"}, rows[1])
	assert.Equal(t, []string{"2025-03-05", "ヤマダ電機", "29800", "その他"}, rows[2])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestWriteExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, sampleRecords()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("領収書")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"日付", "店舗名", "金額", "カテゴリ"}, rows[0])
	assert.Equal(t, "セブンイレブン", rows[1][1])
	assert.Equal(t, "29800", rows[2][2])
}
