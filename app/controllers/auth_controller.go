package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/smartscan-app/smartscan/app/models"
	"github.com/smartscan-app/smartscan/app/repository"
	"github.com/smartscan-app/smartscan/internal/pkg/plans"
	"github.com/smartscan-app/smartscan/internal/pkg/security"
)

// AuthController serves registration and login.
type AuthController struct {
	users  repository.UserRepository
	tokens *security.TokenIssuer
}

func NewAuthController(users repository.UserRepository, tokens *security.TokenIssuer) *AuthController {
	return &AuthController{users: users, tokens: tokens}
}

// credentialsRequest accepts the form fields the web client posts; JSON
// bodies bind through the same tags.
type credentialsRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register creates a new account on the free plan and logs it in.
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "リクエストの形式が不正です")
	}

	if _, err := ac.users.GetByEmail(req.Email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"detail": "このメールアドレスは既に登録されています",
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, err)
	}

	plan := plans.Default()
	user, err := models.CreateUser(req.Email, req.Password, plan.ID, plan.Limit)
	if err != nil {
		return badRequest(c, "メールアドレスまたはパスワードが不正です")
	}
	if err := ac.users.Create(user); err != nil {
		return respondError(c, err)
	}
	log.Infof("[Auth] Registered user %d (%s)", user.ID, user.Email)

	return ac.issueToken(c, user, fiber.StatusCreated)
}

// Login verifies the credentials and returns a bearer token.
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "リクエストの形式が不正です")
	}

	user, err := ac.users.GetByEmail(req.Email)
	if err != nil || !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"detail": "メールアドレスまたはパスワードが正しくありません",
		})
	}

	return ac.issueToken(c, user, fiber.StatusOK)
}

func (ac *AuthController) issueToken(c *fiber.Ctx, user *models.User, status int) error {
	token, err := ac.tokens.GenerateToken(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(status).JSON(tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
