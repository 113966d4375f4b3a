package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartscan-app/smartscan/app/repository"
	"github.com/smartscan-app/smartscan/internal/pkg/middleware"
	"github.com/smartscan-app/smartscan/internal/pkg/plans"
	"github.com/smartscan-app/smartscan/internal/pkg/records"
)

// StatusController serves account status, the subscription view and the
// public plan catalog.
type StatusController struct {
	users   repository.UserRepository
	records *records.Service
}

func NewStatusController(users repository.UserRepository, recordService *records.Service) *StatusController {
	return &StatusController{users: users, records: recordService}
}

// Status returns the caller's account overview together with their
// stored records.
func (sc *StatusController) Status(c *fiber.Ctx) error {
	user, err := sc.users.GetByID(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	recs, err := sc.records.List(user.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"id":           user.ID,
		"email":        user.Email,
		"role":         user.Role,
		"line_linked":  user.IsLinked(),
		"subscription": user.Subscription(),
		"records":      recs,
	})
}

// Subscription returns the plan state including the remaining allowance
// and the plan's feature list.
func (sc *StatusController) Subscription(c *fiber.Ctx) error {
	user, err := sc.users.GetByID(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}

	remaining := user.UsageLimit - user.UsageUsed
	if remaining < 0 {
		remaining = 0
	}

	response := fiber.Map{
		"subscription": user.Subscription(),
		"remaining":    remaining,
	}
	if plan, ok := plans.ByID(user.Plan); ok {
		response["plan_name"] = plan.Name
		response["features"] = plan.Features
	}
	return c.JSON(response)
}

// Plans returns the public plan catalog.
func (sc *StatusController) Plans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"plans": plans.Public()})
}
