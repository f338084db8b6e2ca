package audit

import (
	"go-agri/internal/config"
	"go-agri/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	controller *AuditController
	config     *config.Config
}

func NewAuditApi(controller *AuditController, config *config.Config) *AuditApi {
	return &AuditApi{
		controller: controller,
		config:     config,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	audit := app.Group("/api/bo/audit-logs", middleware.AuthMiddleware(h.config.SkipAuth))

	audit.Get("/", middleware.RequireCapability(middleware.CapAuditRead), h.controller.ListActivity)
	audit.Get("/summary", middleware.RequireCapability(middleware.CapAuditRead), h.controller.Summary)
	audit.Get("/search", middleware.RequireCapability(middleware.CapAuditRead), h.controller.Search)
	audit.Post("/cleanup", middleware.RequireCapability(middleware.CapAuditCleanup), h.controller.Cleanup)
}
