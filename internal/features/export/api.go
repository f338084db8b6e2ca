package export

import (
	"go-agri/internal/config"
	"go-agri/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ExportApi struct {
	controller *ExportController
	config     *config.Config
}

func NewExportApi(controller *ExportController, config *config.Config) *ExportApi {
	return &ExportApi{
		controller: controller,
		config:     config,
	}
}

func (h *ExportApi) Setup(app *fiber.App) {
	app.Get("/api/vo/export/crop-targets",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.RequireCapability(middleware.CapExportOwn),
		h.controller.ExportOwn)

	app.Get("/api/bo/export/crop-targets",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.RequireCapability(middleware.CapExportAll),
		h.controller.ExportAll)
}
