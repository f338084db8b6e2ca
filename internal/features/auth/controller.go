package auth

import (
	"go-agri/internal/common/api"
	"go-agri/internal/common/apperr"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	Service AuthService
}

func NewAuthController(service AuthService) *AuthController {
	return &AuthController{Service: service}
}

func (ctrl *AuthController) Register(c *fiber.Ctx) error {
	var in RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return api.Fail(c, apperr.Validation("invalid request body", nil))
	}

	newUser, err := ctrl.Service.Register(c.UserContext(), c.IP(), in)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusCreated, "user registered", newUser)
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	var body loginBody
	if err := c.BodyParser(&body); err != nil {
		return api.Fail(c, apperr.Validation("invalid request body", nil))
	}

	result, err := ctrl.Service.Login(c.UserContext(), c.IP(), body.Username, body.Password)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "login successful", result)
}

func (ctrl *AuthController) Logout(c *fiber.Ctx) error {
	if err := ctrl.Service.Logout(c.UserContext()); err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "logout successful", nil)
}
