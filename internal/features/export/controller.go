package export

import (
	"strconv"

	"go-agri/internal/common/api"
	"go-agri/internal/common/apperr"
	"go-agri/internal/features/croptarget"
	"go-agri/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ExportController struct {
	Service ExportService
}

func NewExportController(service ExportService) *ExportController {
	return &ExportController{Service: service}
}

func exportQuery(c *fiber.Ctx) croptarget.ListQuery {
	year, _ := strconv.Atoi(c.Query("year", "0"))
	return croptarget.ListQuery{
		Year:         year,
		Season:       c.Query("season"),
		Status:       c.Query("status"),
		District:     c.Query("district"),
		Village:      c.Query("village"),
		CropName:     c.Query("crop_name"),
		CropVariety:  c.Query("crop_variety"),
		CropCategory: c.Query("crop_category"),
		Priority:     c.Query("priority"),
	}
}

func sendWorkbook(c *fiber.Ctx, data []byte, filename string) error {
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

func (ctrl *ExportController) ExportOwn(c *fiber.Ctx) error {
	claims := middleware.ClaimsFromContext(c.UserContext())
	if claims == nil {
		return api.Fail(c, apperr.PermissionDenied("not authenticated"))
	}
	owner, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return api.Fail(c, apperr.PermissionDenied("invalid principal"))
	}

	data, filename, err := ctrl.Service.TargetsToExcel(c.UserContext(), &owner, exportQuery(c))
	if err != nil {
		return api.Fail(c, err)
	}
	return sendWorkbook(c, data, filename)
}

func (ctrl *ExportController) ExportAll(c *fiber.Ctx) error {
	data, filename, err := ctrl.Service.TargetsToExcel(c.UserContext(), nil, exportQuery(c))
	if err != nil {
		return api.Fail(c, err)
	}
	return sendWorkbook(c, data, filename)
}
