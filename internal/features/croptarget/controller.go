package croptarget

import (
	"strconv"

	"go-agri/internal/common/api"
	"go-agri/internal/common/apperr"
	"go-agri/internal/common/models"
	"go-agri/internal/config"
	"go-agri/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CropTargetController struct {
	Service CropTargetService
	Config  *config.Config
}

func NewCropTargetController(service CropTargetService, cfg *config.Config) *CropTargetController {
	return &CropTargetController{Service: service, Config: cfg}
}

func principalID(c *fiber.Ctx) (primitive.ObjectID, error) {
	claims := middleware.ClaimsFromContext(c.UserContext())
	if claims == nil {
		return primitive.NilObjectID, apperr.PermissionDenied("not authenticated")
	}
	oid, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, apperr.PermissionDenied("invalid principal")
	}
	return oid, nil
}

func pathID(c *fiber.Ctx) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid crop target id", map[string]string{
			"id": "must be a valid object id",
		})
	}
	return oid, nil
}

func parseListQuery(c *fiber.Ctx) ListQuery {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	pageSize, _ := strconv.ParseInt(c.Query("page_size", "0"), 10, 64)
	year, _ := strconv.Atoi(c.Query("year", "0"))

	return ListQuery{
		Page:         page,
		PageSize:     pageSize,
		SortBy:       c.Query("sort_by"),
		SortOrder:    c.Query("sort_order"),
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

func (ctrl *CropTargetController) paged(c *fiber.Ctx, message string, targets []CropTarget, total int64, q ListQuery) error {
	page, pageSize := models.ClampPage(q.Page, q.PageSize, ctrl.Config.DefaultPageSize, ctrl.Config.MaxPageSize)
	return api.SuccessPaged(c, message, targets, models.NewPagination(page, pageSize, total))
}

func (ctrl *CropTargetController) Create(c *fiber.Ctx) error {
	owner, err := principalID(c)
	if err != nil {
		return api.Fail(c, err)
	}

	var in CreateInput
	if err := c.BodyParser(&in); err != nil {
		return api.Fail(c, apperr.Validation("invalid request body", nil))
	}

	target, err := ctrl.Service.Create(c.UserContext(), owner, in)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusCreated, "crop target created", target)
}

func (ctrl *CropTargetController) GetOwn(c *fiber.Ctx) error {
	owner, err := principalID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return api.Fail(c, err)
	}

	target, err := ctrl.Service.Get(c.UserContext(), id, &owner)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "crop target retrieved", target)
}

func (ctrl *CropTargetController) GetAny(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return api.Fail(c, err)
	}

	target, err := ctrl.Service.Get(c.UserContext(), id, nil)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "crop target retrieved", target)
}

func (ctrl *CropTargetController) Update(c *fiber.Ctx) error {
	owner, err := principalID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return api.Fail(c, err)
	}

	var in UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return api.Fail(c, apperr.Validation("invalid request body", nil))
	}

	target, err := ctrl.Service.Update(c.UserContext(), id, owner, in)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "crop target updated", target)
}

func (ctrl *CropTargetController) Submit(c *fiber.Ctx) error {
	owner, err := principalID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return api.Fail(c, err)
	}

	target, err := ctrl.Service.Submit(c.UserContext(), id, owner)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "crop target submitted for approval", target)
}

type decisionBody struct {
	Remarks         string `json:"remarks"`
	RejectionReason string `json:"rejection_reason"`
}

func (ctrl *CropTargetController) Approve(c *fiber.Ctx) error {
	approver, err := principalID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return api.Fail(c, err)
	}

	var body decisionBody
	_ = c.BodyParser(&body)

	target, err := ctrl.Service.Approve(c.UserContext(), id, approver, body.Remarks)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "crop target approved", target)
}

func (ctrl *CropTargetController) Reject(c *fiber.Ctx) error {
	approver, err := principalID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return api.Fail(c, err)
	}

	var body decisionBody
	_ = c.BodyParser(&body)

	target, err := ctrl.Service.Reject(c.UserContext(), id, approver, body.RejectionReason)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "crop target rejected", target)
}

func (ctrl *CropTargetController) Delete(c *fiber.Ctx) error {
	owner, err := principalID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return api.Fail(c, err)
	}

	claims := middleware.ClaimsFromContext(c.UserContext())
	if err := ctrl.Service.Delete(c.UserContext(), id, owner, claims.Username); err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "crop target deleted", nil)
}

func (ctrl *CropTargetController) ListOwn(c *fiber.Ctx) error {
	owner, err := principalID(c)
	if err != nil {
		return api.Fail(c, err)
	}

	q := parseListQuery(c)
	targets, total, err := ctrl.Service.ListOwn(c.UserContext(), owner, q)
	if err != nil {
		return api.Fail(c, err)
	}
	return ctrl.paged(c, "crop targets retrieved", targets, total, q)
}

func (ctrl *CropTargetController) ListPending(c *fiber.Ctx) error {
	q := parseListQuery(c)
	targets, total, err := ctrl.Service.ListPending(c.UserContext(), q)
	if err != nil {
		return api.Fail(c, err)
	}
	return ctrl.paged(c, "pending crop targets retrieved", targets, total, q)
}

func (ctrl *CropTargetController) ListAll(c *fiber.Ctx) error {
	q := parseListQuery(c)
	targets, total, err := ctrl.Service.ListAll(c.UserContext(), q)
	if err != nil {
		return api.Fail(c, err)
	}
	return ctrl.paged(c, "crop targets retrieved", targets, total, q)
}

func summaryScope(c *fiber.Ctx, owner *primitive.ObjectID) SummaryScope {
	year, _ := strconv.Atoi(c.Query("year", "0"))
	return SummaryScope{
		Owner:  owner,
		Year:   year,
		Season: c.Query("season"),
	}
}

func (ctrl *CropTargetController) SummaryOwn(c *fiber.Ctx) error {
	owner, err := principalID(c)
	if err != nil {
		return api.Fail(c, err)
	}

	summary, err := ctrl.Service.Summary(c.UserContext(), summaryScope(c, &owner))
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "summary retrieved", summary)
}

func (ctrl *CropTargetController) SummaryAll(c *fiber.Ctx) error {
	summary, err := ctrl.Service.Summary(c.UserContext(), summaryScope(c, nil))
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "summary retrieved", summary)
}
