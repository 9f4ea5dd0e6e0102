package middleware

import (
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
	"github.com/sbt-migration/backend/internal/services"
)

const CtxWallet = "wallet_address"

// SessionHeader carries the opaque session id on every privileged call.
const SessionHeader = "x-session"

func SessionMiddleware(sessions *services.SessionService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wallet, err := sessions.Validate(c.Context(), c.Get(SessionHeader))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrSessionExpired):
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "session expired"})
			case errors.Is(err, services.ErrUnauthorized):
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid session"})
			default:
				log.Error("session lookup failed", zap.Error(err))
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
			}
		}

		c.Locals(CtxWallet, wallet)
		return c.Next()
	}
}

func GetWallet(c *fiber.Ctx) string {
	wallet, _ := c.Locals(CtxWallet).(string)
	return wallet
}

// AdminMiddleware gates operator endpoints behind the shared admin key. An
// empty configured key disables the surface entirely.
func AdminMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminKey == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access disabled"})
		}
		key := c.Get("x-admin-key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.AdminKey)) != 1 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
		}
		return c.Next()
	}
}
