package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartscan-app/smartscan/internal/pkg/middleware"
	"github.com/smartscan-app/smartscan/internal/pkg/records"
)

// RecordController serves the stored receipt records.
type RecordController struct {
	records *records.Service
}

func NewRecordController(service *records.Service) *RecordController {
	return &RecordController{records: service}
}

// List returns all records of the caller.
func (rc *RecordController) List(c *fiber.Ctx) error {
	recs, err := rc.records.List(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"records": recs})
}

// Get returns a single record.
func (rc *RecordController) Get(c *fiber.Ctx) error {
	rec, err := rc.records.Get(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec)
}

type updateRecordRequest struct {
	Date        *string `json:"date"`
	VendorName  *string `json:"vendor_name"`
	TotalAmount *string `json:"total_amount"`
	Category    *string `json:"category"`
}

// Update edits the caller-editable record fields.
func (rc *RecordController) Update(c *fiber.Ctx) error {
	var req updateRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "リクエストの形式が不正です")
	}

	rec, err := rc.records.Update(middleware.UserID(c), c.Params("id"), records.UpdateFields{
		Date:        req.Date,
		VendorName:  req.VendorName,
		TotalAmount: req.TotalAmount,
		Category:    req.Category,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec)
}

// Delete removes one record and its stored artifacts.
func (rc *RecordController) Delete(c *fiber.Ctx) error {
	if err := rc.records.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "削除しました"})
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDelete removes several records at once.
func (rc *RecordController) BulkDelete(c *fiber.Ctx) error {
	var req bulkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "リクエストの形式が不正です")
	}

	deleted, failed, err := rc.records.BulkDelete(c.UserContext(), middleware.UserID(c), req.IDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"deleted": deleted,
		"failed":  failed,
	})
}

type bulkUpdateRequest struct {
	IDs      []string `json:"ids"`
	Category *string  `json:"category"`
	Date     *string  `json:"date"`
}

// BulkUpdate applies a category and/or date to several records.
func (rc *RecordController) BulkUpdate(c *fiber.Ctx) error {
	var req bulkUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "リクエストの形式が不正です")
	}

	updated, failed, err := rc.records.BulkUpdate(middleware.UserID(c), req.IDs, req.Category, req.Date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"updated": updated,
		"failed":  failed,
	})
}
