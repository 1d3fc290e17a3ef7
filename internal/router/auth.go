package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/JGomezGutierrez/api-rest-social-network/internal/apperr"
	"github.com/JGomezGutierrez/api-rest-social-network/internal/token"
)

// NewAuthMiddleware validates the Authorization header and attaches the
// decoded actor to the request. No account lookup happens here: the
// token is the sole credential until it expires.
func NewAuthMiddleware(tokens *token.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(fiber.HeaderAuthorization)
		if raw == "" {
			return apperr.New(apperr.Forbidden, "the request has no authentication header")
		}

		id, err := tokens.Validate(raw)
		if err != nil {
			return err
		}
		if _, err := uuid.Parse(id.UserID); err != nil {
			return apperr.New(apperr.Authentication, "invalid token")
		}

		c.Locals("user_id", id.UserID)
		c.Locals("role", id.Role)
		return c.Next()
	}
}
