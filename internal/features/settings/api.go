package settings

import (
	"go-agri/internal/config"
	"go-agri/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SettingsApi struct {
	controller *SettingsController
	config     *config.Config
}

func NewSettingsApi(controller *SettingsController, config *config.Config) *SettingsApi {
	return &SettingsApi{
		controller: controller,
		config:     config,
	}
}

func (h *SettingsApi) Setup(app *fiber.App) {
	app.Get("/api/settings", middleware.AuthMiddleware(h.config.SkipAuth), h.controller.Get)
}
