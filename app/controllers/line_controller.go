package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/smartscan-app/smartscan/app/repository"
	"github.com/smartscan-app/smartscan/internal/pkg/chatbot"
	"github.com/smartscan-app/smartscan/internal/pkg/linktoken"
	"github.com/smartscan-app/smartscan/internal/pkg/middleware"
)

// LineController serves chat account linking and the messaging webhook.
type LineController struct {
	users   repository.UserRepository
	tokens  linktoken.Store
	webhook *chatbot.Handler
}

func NewLineController(users repository.UserRepository, tokens linktoken.Store, webhook *chatbot.Handler) *LineController {
	return &LineController{users: users, tokens: tokens, webhook: webhook}
}

// GenerateToken mints a fresh linking token for the caller. A previously
// issued token becomes invalid.
func (lc *LineController) GenerateToken(c *fiber.Ctx) error {
	token, err := lc.tokens.Generate(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"token":      token,
		"expires_in": int(linktoken.TokenTTL.Seconds()),
	})
}

// Status reports whether the caller's account is linked to a chat
// identity.
func (lc *LineController) Status(c *fiber.Ctx) error {
	user, err := lc.users.GetByID(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"linked": user.IsLinked()})
}

// Disconnect unlinks the caller's chat identity and drops any pending
// linking token.
func (lc *LineController) Disconnect(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if err := lc.users.UpdateColumns(userID, map[string]interface{}{
		"line_user_id": nil,
	}); err != nil {
		return respondError(c, err)
	}
	if err := lc.tokens.Invalidate(c.UserContext(), userID); err != nil {
		log.Warnf("[Line] Could not invalidate link token for user %d: %v", userID, err)
	}
	return c.JSON(fiber.Map{"message": "連携を解除しました"})
}

// Webhook receives message deliveries from the LINE platform. The
// request is authenticated by its signature, not a bearer token.
func (lc *LineController) Webhook(c *fiber.Ctx) error {
	body := c.Body()
	if !lc.webhook.VerifySignature(body, c.Get("X-Line-Signature")) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"detail": "invalid signature",
		})
	}

	if err := lc.webhook.HandleWebhook(c.UserContext(), body); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
