package dashboard

import (
	"go-agri/internal/config"
	"go-agri/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DashboardApi struct {
	controller *DashboardController
	config     *config.Config
}

func NewDashboardApi(controller *DashboardController, config *config.Config) *DashboardApi {
	return &DashboardApi{
		controller: controller,
		config:     config,
	}
}

func (h *DashboardApi) Setup(app *fiber.App) {
	app.Get("/api/vo/dashboard",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.RequireCapability(middleware.CapSummaryOwn),
		h.controller.Submitter)

	app.Get("/api/bo/dashboard",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.RequireCapability(middleware.CapSummaryAll),
		h.controller.Approver)
}
