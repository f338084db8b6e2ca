package middleware

import (
	"context"

	"go-agri/internal/common/models"
	"go-agri/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates JWT tokens and injects user claims into both the
// fiber locals and the request context so services see the same principal.
func AuthMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			// Inject dummy context for dev
			dummyClaims := &utils.UserClaims{
				UserID:   "dev-admin-id",
				Username: "dev-admin",
				Role:     models.RoleBO,
			}
			injectPrincipal(c, dummyClaims)
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authorization header required",
			})
		}

		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid authorization header format",
			})
		}

		token := authHeader[7:]
		claims, err := utils.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid token",
			})
		}

		injectPrincipal(c, claims)
		return c.Next()
	}
}

func injectPrincipal(c *fiber.Ctx, claims *utils.UserClaims) {
	c.Locals(utils.UserClaimsKey, claims)

	meta := models.RequestMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
		Endpoint:  c.Path(),
		Method:    c.Method(),
	}

	ctx := context.WithValue(c.UserContext(), utils.UserClaimsKey, claims)
	ctx = context.WithValue(ctx, models.RequestMetaKey, meta)
	c.SetUserContext(ctx)
}

// ClaimsFromContext pulls the authenticated principal out of a request
// context. Returns nil when the request was unauthenticated.
func ClaimsFromContext(ctx context.Context) *utils.UserClaims {
	claims, _ := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims)
	return claims
}
