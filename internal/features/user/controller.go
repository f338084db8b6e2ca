package user

import (
	"strconv"

	"go-agri/internal/common/api"
	"go-agri/internal/common/models"
	"go-agri/internal/config"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	Service UserService
	Config  *config.Config
}

func NewUserController(service UserService, cfg *config.Config) *UserController {
	return &UserController{Service: service, Config: cfg}
}

func (ctrl *UserController) List(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	pageSize, _ := strconv.ParseInt(c.Query("page_size", "0"), 10, 64)
	page, pageSize = models.ClampPage(page, pageSize, ctrl.Config.DefaultPageSize, ctrl.Config.MaxPageSize)

	users, total, err := ctrl.Service.List(c.UserContext(), c.Query("role"), page, pageSize)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.SuccessPaged(c, "users retrieved", users, models.NewPagination(page, pageSize, total))
}
