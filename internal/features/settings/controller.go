package settings

import (
	"go-agri/internal/common/api"
	"go-agri/internal/config"
	"go-agri/internal/features/croptarget"

	"github.com/gofiber/fiber/v2"
)

// workflowSettings is the read-only slice of config clients may see.
type workflowSettings struct {
	MinYear            int      `json:"min_year"`
	MaxYear            int      `json:"max_year"`
	DefaultPageSize    int64    `json:"default_page_size"`
	MaxPageSize        int64    `json:"max_page_size"`
	UpdatePolicy       string   `json:"update_policy"`
	AllowDelete        bool     `json:"allow_delete"`
	AuditRetentionDays int      `json:"audit_retention_days"`
	ValidSeasons       []string `json:"valid_seasons"`
	ValidPriorities    []string `json:"valid_priorities"`
}

type SettingsController struct {
	Config *config.Config
}

func NewSettingsController(cfg *config.Config) *SettingsController {
	return &SettingsController{Config: cfg}
}

func (ctrl *SettingsController) Get(c *fiber.Ctx) error {
	return api.Success(c, fiber.StatusOK, "settings retrieved", workflowSettings{
		MinYear:            ctrl.Config.MinYear,
		MaxYear:            ctrl.Config.MaxYear,
		DefaultPageSize:    ctrl.Config.DefaultPageSize,
		MaxPageSize:        ctrl.Config.MaxPageSize,
		UpdatePolicy:       string(ctrl.Config.UpdatePolicy),
		AllowDelete:        ctrl.Config.AllowDelete,
		AuditRetentionDays: ctrl.Config.AuditRetentionDays,
		ValidSeasons:       croptarget.ValidSeasons,
		ValidPriorities:    croptarget.ValidPriorities,
	})
}
