package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionFromCtx returns the decoded session claims a RequireSession
// middleware stored on the request.
func SessionFromCtx(c *fiber.Ctx, key string) (*SessionClaims, error) {
	value := c.Locals(key)
	if value == nil {
		return nil, ErrSessionMalformed
	}

	claims, ok := value.(*SessionClaims)
	if !ok || claims == nil {
		return nil, ErrSessionMalformed
	}

	return claims, nil
}

// RequireSession validates the bearer session token and stores its claims
// under the configured context key.
func RequireSession(tokens TokenService, cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}

		c.Locals(cfg.GetContextKey(), claims)
		return c.Next()
	}
}

// RequireAdmin gates a route behind the Privilege Verifier. It expects
// RequireSession to have run first. AccessDenied is a hard stop; callers
// never learn whether the grant was missing or revoked.
func RequireAdmin(verifier *PrivilegeVerifier, cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := SessionFromCtx(c, cfg.GetContextKey())
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}

		if _, err := verifier.RequireAdmin(c.UserContext(), claims.Email); err != nil {
			if IsAccessDenied(err) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": AccessDeniedMessage,
				})
			}
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "service temporarily unavailable",
			})
		}

		return c.Next()
	}
}

func bearerToken(header string) string {
	const scheme = "Bearer "
	if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
		return strings.TrimSpace(header[len(scheme):])
	}
	return ""
}
