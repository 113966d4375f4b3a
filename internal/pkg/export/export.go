// Package export renders receipt records as CSV and Excel downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/smartscan-app/smartscan/app/models"
)

var headers = []string{"日付", "店舗名", "金額", "カテゴリ"}

// WriteCSV writes the records as UTF-8 CSV. A byte order mark is
// prepended so Excel on Windows picks up the encoding.
func WriteCSV(w io.Writer, records []models.ReceiptRecord) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{rec.Date, rec.VendorName, strconv.Itoa(rec.TotalAmount), rec.Category}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteExcel writes the records as a single-sheet xlsx workbook.
func WriteExcel(w io.Writer, records []models.ReceiptRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "領収書"
	f.SetSheetName("Sheet1", sheet)

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	for i, rec := range records {
		row := i + 2
		values := []interface{}{rec.Date, rec.VendorName, rec.TotalAmount, rec.Category}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 30); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "C", "D", 12); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
