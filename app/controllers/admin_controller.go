package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/smartscan-app/smartscan/app/models"
	"github.com/smartscan-app/smartscan/app/repository"
	"github.com/smartscan-app/smartscan/internal/pkg/middleware"
	"github.com/smartscan-app/smartscan/internal/pkg/plans"
	"github.com/smartscan-app/smartscan/internal/pkg/records"
)

// AdminController manages user accounts and subscriptions.
type AdminController struct {
	users   repository.UserRepository
	records *records.Service
}

func NewAdminController(users repository.UserRepository, recordService *records.Service) *AdminController {
	return &AdminController{users: users, records: recordService}
}

// RequireAdmin rejects non-admin callers. Must run after RequireAuth.
func (adc *AdminController) RequireAdmin(c *fiber.Ctx) error {
	user, err := adc.users.GetByID(middleware.UserID(c))
	if err != nil || !user.IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"detail": "管理者権限が必要です",
		})
	}
	return c.Next()
}

// ListUsers returns all accounts.
func (adc *AdminController) ListUsers(c *fiber.Ctx) error {
	users, err := adc.users.List()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Plan     string `json:"plan"`
}

// CreateUser creates an account on the given plan.
func (adc *AdminController) CreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "リクエストの形式が不正です")
	}

	plan, ok := plans.ByID(req.Plan)
	if !ok {
		plan = plans.Default()
	}
	user, err := models.CreateUser(req.Email, req.Password, plan.ID, plan.Limit)
	if err != nil {
		return badRequest(c, "メールアドレスまたはパスワードが不正です")
	}
	if err := adc.users.Create(user); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// DeleteUser removes an account together with its records and stored
// artifacts. Admin accounts cannot be deleted.
func (adc *AdminController) DeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "ユーザーIDが不正です")
	}

	user, err := adc.users.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "ユーザーが見つかりません",
			})
		}
		return respondError(c, err)
	}
	if user.IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"detail": "管理者アカウントは削除できません",
		})
	}

	if err := adc.records.DeleteAllForUser(c.UserContext(), user.ID); err != nil {
		return respondError(c, err)
	}
	if err := adc.users.Delete(user.ID); err != nil {
		return respondError(c, err)
	}
	log.Infof("[Admin] Deleted user %d (%s)", user.ID, user.Email)
	return c.JSON(fiber.Map{"message": "削除しました"})
}

type subscriptionUpdateRequest struct {
	Plan string `json:"plan"`
}

// UpdateSubscription moves an account onto another plan. The usage
// counter is kept; only the limit changes.
func (adc *AdminController) UpdateSubscription(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "ユーザーIDが不正です")
	}

	var req subscriptionUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "リクエストの形式が不正です")
	}
	plan, ok := plans.ByID(req.Plan)
	if !ok {
		return badRequest(c, "プランが不正です")
	}

	if err := adc.users.UpdateColumns(uint(id), map[string]interface{}{
		"plan":        plan.ID,
		"usage_limit": plan.Limit,
	}); err != nil {
		return respondError(c, err)
	}

	user, err := adc.users.GetByID(uint(id))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"subscription": user.Subscription()})
}
