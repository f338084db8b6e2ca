package auth

import (
	"context"
	"testing"

	"go-agri/internal/common/apperr"
	"go-agri/internal/common/models"
	"go-agri/internal/config"
	"go-agri/internal/features/audit"
	"go-agri/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type mockUserRepo struct {
	users  map[string]*models.User
	logins int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users[u.Username] = u
	return nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.users[username], nil
}

func (m *mockUserRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	return nil, nil
}

func (m *mockUserRepo) List(ctx context.Context, filter bson.M, limit, offset int64) ([]models.User, int64, error) {
	return nil, 0, nil
}

func (m *mockUserRepo) RecordLogin(ctx context.Context, id primitive.ObjectID) error {
	m.logins++
	return nil
}

type noopAudit struct {
	entries []audit.Entry
}

func (m *noopAudit) Log(ctx context.Context, e audit.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *noopAudit) ListActivity(ctx context.Context, q audit.ActivityQuery) ([]audit.AuditLog, int64, error) {
	return nil, 0, nil
}

func (m *noopAudit) Summary(ctx context.Context, period string) (*audit.ActivitySummary, error) {
	return nil, nil
}

func (m *noopAudit) Search(ctx context.Context, term string, limit int64) ([]audit.AuditLog, error) {
	return nil, nil
}

func (m *noopAudit) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	return 0, nil
}

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:              "test-secret",
		JWTExpiry:              1,
		LoginRateLimitPerIP:    20,
		LoginRateLimitPerUser:  5,
		RegisterRateLimitPerIP: 5,
		RateLimitWindowSec:     300,
	}
}

func newAuthService(repo *mockUserRepo, auditLog *noopAudit, cfg *config.Config) AuthService {
	if cfg == nil {
		cfg = testAuthConfig()
	}
	return NewAuthService(repo, auditLog, NewLimiters(cfg), cfg, zap.NewNop())
}

func validRegister() RegisterInput {
	return RegisterInput{
		Username: "vo-anita",
		Password: "correct-horse",
		FullName: "Anita Rao",
		Role:     models.RoleVO,
		District: "Warangal",
		Village:  "Pasra",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newMockUserRepo()
	auditLog := &noopAudit{}
	svc := newAuthService(repo, auditLog, nil)

	newUser, err := svc.Register(context.Background(), "10.0.0.1", validRegister())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newUser.Password == "correct-horse" {
		t.Errorf("password stored in plaintext")
	}

	result, err := svc.Login(context.Background(), "10.0.0.1", "VO-Anita", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Token == "" {
		t.Errorf("expected a token")
	}
	if repo.logins != 1 {
		t.Errorf("login not recorded")
	}

	actions := []models.AuditAction{}
	for _, e := range auditLog.entries {
		actions = append(actions, e.Action)
	}
	if len(actions) != 2 || actions[0] != models.AuditActionCreate || actions[1] != models.AuditActionLogin {
		t.Errorf("audit actions = %v", actions)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
		field  string
	}{
		{"missing username", func(in *RegisterInput) { in.Username = "" }, "username"},
		{"short password", func(in *RegisterInput) { in.Password = "short" }, "password"},
		{"missing full name", func(in *RegisterInput) { in.FullName = " " }, "full_name"},
		{"unknown role", func(in *RegisterInput) { in.Role = "ADMIN" }, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newAuthService(newMockUserRepo(), &noopAudit{}, nil)

			in := validRegister()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), "10.0.0.1", in)
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newAuthService(newMockUserRepo(), &noopAudit{}, nil)

	if _, err := svc.Register(context.Background(), "10.0.0.1", validRegister()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Register(context.Background(), "10.0.0.2", validRegister())
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestLoginWrongPasswordAndUnknownUserLookAlike(t *testing.T) {
	svc := newAuthService(newMockUserRepo(), &noopAudit{}, nil)

	if _, err := svc.Register(context.Background(), "10.0.0.1", validRegister()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, errWrongPass := svc.Login(context.Background(), "10.0.0.1", "vo-anita", "wrong")
	_, errNoUser := svc.Login(context.Background(), "10.0.0.1", "ghost", "wrong")

	for _, err := range []error{errWrongPass, errNoUser} {
		if apperr.KindOf(err) != apperr.KindPermissionDenied {
			t.Fatalf("expected PermissionDenied, got %v", err)
		}
	}
	if errWrongPass.Error() != errNoUser.Error() {
		t.Errorf("error messages must not reveal whether the account exists")
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo, &noopAudit{}, nil)

	if _, err := svc.Register(context.Background(), "10.0.0.1", validRegister()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.users["vo-anita"].Status = "suspended"

	_, err := svc.Login(context.Background(), "10.0.0.1", "vo-anita", "correct-horse")
	if apperr.KindOf(err) != apperr.KindPermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
}

func TestLoginPerAccountRateLimit(t *testing.T) {
	cfg := testAuthConfig()
	cfg.LoginRateLimitPerUser = 3
	svc := newAuthService(newMockUserRepo(), &noopAudit{}, cfg)

	var err error
	for i := 0; i < 4; i++ {
		_, err = svc.Login(context.Background(), "10.0.0.1", "ghost", "wrong")
	}
	if apperr.KindOf(err) != apperr.KindRateLimited {
		t.Fatalf("expected RateLimited after exhausting attempts, got %v", err)
	}
}

func TestRegisterRateLimitPerIP(t *testing.T) {
	cfg := testAuthConfig()
	cfg.RegisterRateLimitPerIP = 2
	svc := newAuthService(newMockUserRepo(), &noopAudit{}, cfg)

	in := validRegister()
	in.Username = "" // fail validation, still consumes the window
	var err error
	for i := 0; i < 3; i++ {
		_, err = svc.Register(context.Background(), "10.0.0.9", in)
	}
	if apperr.KindOf(err) != apperr.KindRateLimited {
		t.Fatalf("expected RateLimited, got %v", err)
	}
}

func TestLogoutRequiresPrincipal(t *testing.T) {
	svc := newAuthService(newMockUserRepo(), &noopAudit{}, nil)

	if err := svc.Logout(context.Background()); apperr.KindOf(err) != apperr.KindPermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}

	ctx := context.WithValue(context.Background(), utils.UserClaimsKey, &utils.UserClaims{
		UserID:   primitive.NewObjectID().Hex(),
		Username: "vo-anita",
		Role:     models.RoleVO,
	})
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSuccessfulLoginResetsAccountWindow(t *testing.T) {
	cfg := testAuthConfig()
	cfg.LoginRateLimitPerUser = 3
	repo := newMockUserRepo()
	svc := newAuthService(repo, &noopAudit{}, cfg)

	if _, err := svc.Register(context.Background(), "10.0.0.1", validRegister()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two failures, then a success, then the window should be fresh again.
	for i := 0; i < 2; i++ {
		svc.Login(context.Background(), "10.0.0.1", "vo-anita", "wrong")
	}
	if _, err := svc.Login(context.Background(), "10.0.0.1", "vo-anita", "correct-horse"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.Login(context.Background(), "10.0.0.1", "vo-anita", "wrong"); apperr.KindOf(err) == apperr.KindRateLimited {
			t.Fatalf("window should have reset after successful login")
		}
	}
}
