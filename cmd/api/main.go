package main

import (
	"context"
	"fmt"
	"log"

	common_api "go-agri/internal/common/api"
	"go-agri/internal/config"
	"go-agri/internal/database"
	"go-agri/internal/features/audit"
	"go-agri/internal/features/auth"
	"go-agri/internal/features/croptarget"
	"go-agri/internal/features/dashboard"
	"go-agri/internal/features/export"
	"go-agri/internal/features/retention"
	"go-agri/internal/features/settings"
	"go-agri/internal/features/user"
	"go-agri/internal/logger"
	"go-agri/internal/middleware"
	"go-agri/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if _, ok := err.(*fiber.Error); ok {
				code := err.(*fiber.Error).Code
				return c.Status(code).JSON(fiber.Map{
					"success": false,
					"message": err.Error(),
				})
			}
			return common_api.Fail(c, err)
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,
			database.NewDatabase,

			user.NewUserRepository,
			audit.NewAuditRepository,
			croptarget.NewCropTargetRepository,

			audit.NewAuditService,
			auth.NewLimiters,
			auth.NewAuthService,
			user.NewUserService,
			croptarget.NewCropTargetService,
			dashboard.NewDashboardService,
			export.NewExportService,

			// Interface adapters to satisfy Fx
			func(s audit.AuditService) croptarget.AuditLogger { return s },
			func(r user.UserRepository) audit.UserFinder { return r },
			func(db *database.MongodbDB) database.TxRunner { return db },

			auth.NewAuthController,
			user.NewUserController,
			audit.NewAuditController,
			croptarget.NewCropTargetController,
			dashboard.NewDashboardController,
			export.NewExportController,
			settings.NewSettingsController,

			AsRoute(auth.NewAuthApi),
			AsRoute(user.NewUserApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(croptarget.NewCropTargetApi),
			AsRoute(dashboard.NewDashboardApi),
			AsRoute(export.NewExportApi),
			AsRoute(settings.NewSettingsApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) {
				utils.SetSecret(cfg.JWTSecret)
			},
			RegisterAllRoutesWithAnnotation,
			StartServer,
			retention.NewScheduler,
		),
	)

	app.Run()
}
