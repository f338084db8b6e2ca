package main

import (
	"context"

	"go-agri/internal/common/models"
	"go-agri/internal/config"
	"go-agri/internal/database"
	"go-agri/internal/features/user"
	"go-agri/internal/logger"
	"go-agri/pkg/utils"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

type seedUser struct {
	Username string
	Password string
	FullName string
	Role     models.Role
	State    string
	District string
	Village  string
}

var demoUsers = []seedUser{
	{
		Username: "vo.pasra",
		Password: "vo-pasra-demo",
		FullName: "Anita Rao",
		Role:     models.RoleVO,
		State:    "Telangana",
		District: "Warangal",
		Village:  "Pasra",
	},
	{
		Username: "vo.kondapur",
		Password: "vo-kondapur-demo",
		FullName: "Suresh Kumar",
		Role:     models.RoleVO,
		State:    "Telangana",
		District: "Warangal",
		Village:  "Kondapur",
	},
	{
		Username: "bo.warangal",
		Password: "bo-warangal-demo",
		FullName: "Meena Devi",
		Role:     models.RoleBO,
		State:    "Telangana",
		District: "Warangal",
	},
}

// Seed creates the demo accounts and shuts the app down.
func Seed(lc fx.Lifecycle, userRepo user.UserRepository, logger *zap.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				logger.Info("Seeding demo users...")

				for _, su := range demoUsers {
					existing, err := userRepo.FindByUsername(context.Background(), su.Username)
					if err != nil {
						logger.Error("Failed to check user", zap.String("username", su.Username), zap.Error(err))
						continue
					}
					if existing != nil {
						logger.Info("User exists, skipping", zap.String("username", su.Username))
						continue
					}

					hashed, err := utils.HashPassword(su.Password)
					if err != nil {
						logger.Error("Failed to hash password", zap.String("username", su.Username), zap.Error(err))
						continue
					}

					newUser := &models.User{
						Username: su.Username,
						Password: hashed,
						FullName: su.FullName,
						Role:     su.Role,
						State:    su.State,
						District: su.District,
						Village:  su.Village,
						Status:   "active",
						Active:   true,
					}
					if err := userRepo.Create(context.Background(), newUser); err != nil {
						logger.Error("Failed to create user", zap.String("username", su.Username), zap.Error(err))
						continue
					}
					logger.Info("User created",
						zap.String("username", su.Username),
						zap.String("role", string(su.Role)))
				}

				logger.Info("Seeding finished")
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			user.NewUserRepository,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
