package middleware

import (
	"go-agri/internal/common/api"
	"go-agri/internal/common/apperr"
	"go-agri/internal/common/models"
	"go-agri/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// Capabilities the two roles can exercise. This table is the single source
// of truth for "who can do what"; route handlers only name a capability.
const (
	CapTargetCreate    = "target:create"
	CapTargetReadOwn   = "target:read-own"
	CapTargetUpdateOwn = "target:update-own"
	CapTargetSubmit    = "target:submit"
	CapTargetDeleteOwn = "target:delete-own"
	CapTargetReadAll   = "target:read-all"
	CapTargetApprove   = "target:approve"
	CapTargetReject    = "target:reject"
	CapSummaryOwn      = "summary:own"
	CapSummaryAll      = "summary:all"
	CapAuditRead       = "audit:read"
	CapAuditCleanup    = "audit:cleanup"
	CapUsersRead       = "users:read"
	CapExportOwn       = "export:own"
	CapExportAll       = "export:all"
)

var capabilities = map[models.Role]map[string]bool{
	models.RoleVO: {
		CapTargetCreate:    true,
		CapTargetReadOwn:   true,
		CapTargetUpdateOwn: true,
		CapTargetSubmit:    true,
		CapTargetDeleteOwn: true,
		CapSummaryOwn:      true,
		CapExportOwn:       true,
	},
	models.RoleBO: {
		CapTargetReadAll: true,
		CapTargetApprove: true,
		CapTargetReject:  true,
		CapSummaryAll:    true,
		CapAuditRead:     true,
		CapAuditCleanup:  true,
		CapUsersRead:     true,
		CapExportAll:     true,
	},
}

// Allows is the pure role-gate: (principal_role, capability) -> allow/deny.
func Allows(role models.Role, capability string) bool {
	return capabilities[role][capability]
}

// RequireCapability denies the request with PermissionDenied when the
// authenticated role does not hold the capability.
func RequireCapability(capability string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Unauthorized",
			})
		}

		if !Allows(claims.Role, capability) {
			return api.Fail(c, apperr.PermissionDenied("insufficient permissions"))
		}

		return c.Next()
	}
}
