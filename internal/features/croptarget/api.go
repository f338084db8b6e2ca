package croptarget

import (
	"go-agri/internal/config"
	"go-agri/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CropTargetApi struct {
	controller *CropTargetController
	config     *config.Config
}

func NewCropTargetApi(controller *CropTargetController, config *config.Config) *CropTargetApi {
	return &CropTargetApi{
		controller: controller,
		config:     config,
	}
}

func (h *CropTargetApi) Setup(app *fiber.App) {
	vo := app.Group("/api/vo/crop-targets", middleware.AuthMiddleware(h.config.SkipAuth))

	vo.Post("/", middleware.RequireCapability(middleware.CapTargetCreate), h.controller.Create)
	vo.Get("/", middleware.RequireCapability(middleware.CapTargetReadOwn), h.controller.ListOwn)
	vo.Get("/:id", middleware.RequireCapability(middleware.CapTargetReadOwn), h.controller.GetOwn)
	vo.Put("/:id", middleware.RequireCapability(middleware.CapTargetUpdateOwn), h.controller.Update)
	vo.Post("/:id/submit", middleware.RequireCapability(middleware.CapTargetSubmit), h.controller.Submit)
	vo.Delete("/:id", middleware.RequireCapability(middleware.CapTargetDeleteOwn), h.controller.Delete)

	app.Get("/api/vo/summary",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.RequireCapability(middleware.CapSummaryOwn),
		h.controller.SummaryOwn)

	bo := app.Group("/api/bo/crop-targets", middleware.AuthMiddleware(h.config.SkipAuth))

	bo.Get("/", middleware.RequireCapability(middleware.CapTargetReadAll), h.controller.ListAll)
	bo.Get("/pending", middleware.RequireCapability(middleware.CapTargetReadAll), h.controller.ListPending)
	bo.Get("/:id", middleware.RequireCapability(middleware.CapTargetReadAll), h.controller.GetAny)
	bo.Post("/:id/approve", middleware.RequireCapability(middleware.CapTargetApprove), h.controller.Approve)
	bo.Post("/:id/reject", middleware.RequireCapability(middleware.CapTargetReject), h.controller.Reject)

	app.Get("/api/bo/summary",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.RequireCapability(middleware.CapSummaryAll),
		h.controller.SummaryAll)
}
