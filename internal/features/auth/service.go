package auth

import (
	"context"
	"strings"
	"time"

	"go-agri/internal/common/apperr"
	"go-agri/internal/common/models"
	"go-agri/internal/config"
	"go-agri/internal/features/audit"
	"go-agri/internal/features/user"
	"go-agri/pkg/ratelimit"
	"go-agri/pkg/utils"

	"go.uber.org/zap"
)

type RegisterInput struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	State    string      `json:"state"`
	District string      `json:"district"`
	Village  string      `json:"village"`
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, ip string, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, ip, username, password string) (*LoginResult, error)
	Logout(ctx context.Context) error
}

// Limiters bundles the per-surface rate limiters so fx can build them once
// from config.
type Limiters struct {
	LoginByIP    *ratelimit.Limiter
	LoginByUser  *ratelimit.Limiter
	RegisterByIP *ratelimit.Limiter
}

func NewLimiters(cfg *config.Config) *Limiters {
	window := time.Duration(cfg.RateLimitWindowSec) * time.Second
	return &Limiters{
		LoginByIP:    ratelimit.NewLimiter(cfg.LoginRateLimitPerIP, window),
		LoginByUser:  ratelimit.NewLimiter(cfg.LoginRateLimitPerUser, window),
		RegisterByIP: ratelimit.NewLimiter(cfg.RegisterRateLimitPerIP, window),
	}
}

type AuthServiceImpl struct {
	UserRepo user.UserRepository
	Audit    audit.AuditService
	Limiters *Limiters
	Config   *config.Config
	Logger   *zap.Logger
}

func NewAuthService(userRepo user.UserRepository, auditService audit.AuditService, limiters *Limiters, cfg *config.Config, logger *zap.Logger) AuthService {
	return &AuthServiceImpl{
		UserRepo: userRepo,
		Audit:    auditService,
		Limiters: limiters,
		Config:   cfg,
		Logger:   logger,
	}
}

func validateRegister(in RegisterInput) map[string]string {
	fields := make(map[string]string)

	if strings.TrimSpace(in.Username) == "" {
		fields["username"] = "is required"
	}
	if len(in.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if strings.TrimSpace(in.FullName) == "" {
		fields["full_name"] = "is required"
	}
	if !in.Role.Valid() {
		fields["role"] = "must be VO or BO"
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (s *AuthServiceImpl) Register(ctx context.Context, ip string, in RegisterInput) (*models.User, error) {
	if !s.Limiters.RegisterByIP.Allow("register:" + ip) {
		return nil, apperr.RateLimited("too many registration attempts, try again later")
	}

	if fields := validateRegister(in); fields != nil {
		return nil, apperr.Validation("registration validation failed", fields)
	}

	username := strings.ToLower(strings.TrimSpace(in.Username))
	existing, err := s.UserRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("username already taken")
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	newUser := &models.User{
		Username: username,
		Password: hashed,
		Email:    strings.TrimSpace(in.Email),
		FullName: strings.TrimSpace(in.FullName),
		Role:     in.Role,
		State:    strings.TrimSpace(in.State),
		District: strings.TrimSpace(in.District),
		Village:  strings.TrimSpace(in.Village),
		Status:   "active",
		Active:   true,
	}
	if err := s.UserRepo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	if err := s.Audit.Log(ctx, audit.Entry{
		Action:       models.AuditActionCreate,
		ResourceType: "user",
		ResourceID:   newUser.ID.Hex(),
		Description:  "registered user " + username,
		NewValues: map[string]any{
			"username": username,
			"role":     string(in.Role),
		},
	}); err != nil {
		s.Logger.Warn("failed to audit registration", zap.Error(err))
	}

	s.Logger.Info("user registered",
		zap.String("username", username),
		zap.String("role", string(in.Role)))
	return newUser, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, ip, username, password string) (*LoginResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	if !s.Limiters.LoginByIP.Allow("login:ip:" + ip) {
		return nil, apperr.RateLimited("too many login attempts, try again later")
	}
	if !s.Limiters.LoginByUser.Allow("login:user:" + username) {
		return nil, apperr.RateLimited("too many login attempts for this account, try again later")
	}

	account, err := s.UserRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	// Invalid username and invalid password answer identically.
	if account == nil || !utils.CheckPassword(password, account.Password) {
		return nil, apperr.PermissionDenied("invalid credentials")
	}
	if !account.Active || account.Status != "active" {
		return nil, apperr.PermissionDenied("account is disabled")
	}

	token, err := utils.GenerateToken(account.ID, account.Username, account.Role, s.Config.JWTExpiry)
	if err != nil {
		return nil, err
	}

	if err := s.UserRepo.RecordLogin(ctx, account.ID); err != nil {
		s.Logger.Warn("failed to record login", zap.Error(err))
	}

	if err := s.Audit.Log(ctx, audit.Entry{
		Action:       models.AuditActionLogin,
		ResourceType: "user",
		ResourceID:   account.ID.Hex(),
		Description:  "user " + username + " logged in",
	}); err != nil {
		s.Logger.Warn("failed to audit login", zap.Error(err))
	}

	// Successful login resets the per-account window.
	s.Limiters.LoginByUser.Reset("login:user:" + username)

	return &LoginResult{Token: token, User: account}, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context) error {
	claims, _ := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims)
	if claims == nil {
		return apperr.PermissionDenied("not authenticated")
	}

	return s.Audit.Log(ctx, audit.Entry{
		Action:       models.AuditActionLogout,
		ResourceType: "user",
		ResourceID:   claims.UserID,
		Description:  "user " + claims.Username + " logged out",
	})
}
