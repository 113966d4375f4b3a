package controllers

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/smartscan-app/smartscan/app/models"
	"github.com/smartscan-app/smartscan/internal/pkg/apperrors"
	"github.com/smartscan-app/smartscan/internal/pkg/export"
	"github.com/smartscan-app/smartscan/internal/pkg/middleware"
	"github.com/smartscan-app/smartscan/internal/pkg/records"
)

// ExportController serves CSV and Excel downloads of receipt records.
type ExportController struct {
	records *records.Service
}

func NewExportController(service *records.Service) *ExportController {
	return &ExportController{records: service}
}

type exportSelectionRequest struct {
	IDs []string `json:"ids"`
}

// CSV downloads all records of the caller as CSV.
func (ec *ExportController) CSV(c *fiber.Ctx) error {
	recs, err := ec.records.List(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return ec.sendCSV(c, recs)
}

// Excel downloads all records of the caller as an xlsx workbook.
func (ec *ExportController) Excel(c *fiber.Ctx) error {
	recs, err := ec.records.List(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return ec.sendExcel(c, recs)
}

// CSVSelected downloads only the records named in the request body.
func (ec *ExportController) CSVSelected(c *fiber.Ctx) error {
	recs, err := ec.selected(c)
	if err != nil {
		return respondError(c, err)
	}
	return ec.sendCSV(c, recs)
}

// ExcelSelected downloads only the records named in the request body.
func (ec *ExportController) ExcelSelected(c *fiber.Ctx) error {
	recs, err := ec.selected(c)
	if err != nil {
		return respondError(c, err)
	}
	return ec.sendExcel(c, recs)
}

func (ec *ExportController) selected(c *fiber.Ctx) ([]models.ReceiptRecord, error) {
	var req exportSelectionRequest
	if err := c.BodyParser(&req); err != nil || len(req.IDs) == 0 {
		return nil, apperrors.New(apperrors.KindValidation, "エクスポートする記録が指定されていません")
	}
	return ec.records.ListByIDs(middleware.UserID(c), req.IDs)
}

func (ec *ExportController) sendCSV(c *fiber.Ctx, recs []models.ReceiptRecord) error {
	sortByDateDesc(recs)
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, recs); err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="receipts_%s.csv"`, time.Now().Format("20060102")))
	return c.Send(buf.Bytes())
}

func (ec *ExportController) sendExcel(c *fiber.Ctx, recs []models.ReceiptRecord) error {
	sortByDateDesc(recs)
	var buf bytes.Buffer
	if err := export.WriteExcel(&buf, recs); err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="receipts_%s.xlsx"`, time.Now().Format("20060102")))
	return c.Send(buf.Bytes())
}

// sortByDateDesc orders newest receipt first; ties keep insertion order.
func sortByDateDesc(recs []models.ReceiptRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Date > recs[j].Date
	})
}
