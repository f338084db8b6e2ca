package audit

import (
	"strconv"
	"time"

	"go-agri/internal/common/api"
	"go-agri/internal/common/models"
	"go-agri/internal/config"

	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	Service AuditService
	Config  *config.Config
}

func NewAuditController(service AuditService, cfg *config.Config) *AuditController {
	return &AuditController{Service: service, Config: cfg}
}

func (ctrl *AuditController) ListActivity(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	pageSize, _ := strconv.ParseInt(c.Query("page_size", "0"), 10, 64)
	page, pageSize = models.ClampPage(page, pageSize, ctrl.Config.DefaultPageSize, ctrl.Config.MaxPageSize)

	q := ActivityQuery{
		UserID:       c.Query("user_id"),
		Username:     c.Query("username"),
		Action:       c.Query("action"),
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		Page:         page,
		PageSize:     pageSize,
	}
	if raw := c.Query("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.From = &t
		}
	}
	if raw := c.Query("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.To = &t
		}
	}

	logs, total, err := ctrl.Service.ListActivity(c.UserContext(), q)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.SuccessPaged(c, "activity retrieved", logs, models.NewPagination(page, pageSize, total))
}

func (ctrl *AuditController) Summary(c *fiber.Ctx) error {
	period := c.Query("time_period", "24h")

	summary, err := ctrl.Service.Summary(c.UserContext(), period)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "activity summary retrieved", summary)
}

func (ctrl *AuditController) Search(c *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(c.Query("limit", "100"), 10, 64)

	logs, err := ctrl.Service.Search(c.UserContext(), c.Query("q"), limit)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "search results retrieved", logs)
}

func (ctrl *AuditController) Cleanup(c *fiber.Ctx) error {
	days := ctrl.Config.AuditRetentionDays
	if raw := c.Query("retention_days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			days = parsed
		}
	}

	deleted, err := ctrl.Service.Cleanup(c.UserContext(), days)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Success(c, fiber.StatusOK, "audit cleanup finished", fiber.Map{
		"deleted_count":  deleted,
		"retention_days": days,
	})
}
