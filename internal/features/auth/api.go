package auth

import (
	"go-agri/internal/config"
	"go-agri/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuthApi struct {
	controller *AuthController
	config     *config.Config
}

func NewAuthApi(controller *AuthController, config *config.Config) *AuthApi {
	return &AuthApi{
		controller: controller,
		config:     config,
	}
}

func (h *AuthApi) Setup(app *fiber.App) {
	auth := app.Group("/api/auth")

	auth.Post("/register", h.controller.Register)
	auth.Post("/login", h.controller.Login)
	auth.Post("/logout", middleware.AuthMiddleware(h.config.SkipAuth), h.controller.Logout)
}
