package dashboard

import (
	"go-agri/internal/common/api"
	"go-agri/internal/common/apperr"
	"go-agri/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DashboardController struct {
	Service DashboardService
}

func NewDashboardController(service DashboardService) *DashboardController {
	return &DashboardController{Service: service}
}

func (ctrl *DashboardController) Submitter(c *fiber.Ctx) error {
	claims := middleware.ClaimsFromContext(c.UserContext())
	if claims == nil {
		return api.Fail(c, apperr.PermissionDenied("not authenticated"))
	}
	owner, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return api.Fail(c, apperr.PermissionDenied("invalid principal"))
	}

	view, err := ctrl.Service.ForSubmitter(c.UserContext(), owner)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "dashboard retrieved", view)
}

func (ctrl *DashboardController) Approver(c *fiber.Ctx) error {
	view, err := ctrl.Service.ForApprover(c.UserContext())
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "dashboard retrieved", view)
}
