package audit

import (
	"context"
	"testing"
	"time"

	"go-agri/internal/common/apperr"
	"go-agri/internal/common/models"
	"go-agri/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type mockAuditRepo struct {
	created      []*AuditLog
	listed       []AuditLog
	deleted      int64
	actionCounts []ActionCount
	resCounts    []ResourceCount
	topUsers     []UserActivity
	hourly       []HourBucket
}

func (m *mockAuditRepo) Create(ctx context.Context, log *AuditLog) error {
	m.created = append(m.created, log)
	return nil
}

func (m *mockAuditRepo) List(ctx context.Context, filter bson.M, limit, offset int64) ([]AuditLog, int64, error) {
	return m.listed, int64(len(m.listed)), nil
}

func (m *mockAuditRepo) Search(ctx context.Context, term string, limit int64) ([]AuditLog, error) {
	return nil, nil
}

func (m *mockAuditRepo) CountByAction(ctx context.Context, since time.Time) ([]ActionCount, error) {
	return m.actionCounts, nil
}

func (m *mockAuditRepo) CountByResource(ctx context.Context, since time.Time) ([]ResourceCount, error) {
	return m.resCounts, nil
}

func (m *mockAuditRepo) TopUsers(ctx context.Context, since time.Time, n int64) ([]UserActivity, error) {
	return m.topUsers, nil
}

func (m *mockAuditRepo) HourlyHistogram(ctx context.Context, since time.Time) ([]HourBucket, error) {
	return m.hourly, nil
}

func (m *mockAuditRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return m.deleted, nil
}

type mockUserFinder struct {
	users []models.User
	calls int
}

func (m *mockUserFinder) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	m.calls++
	return m.users, nil
}

func newTestService(repo *mockAuditRepo) AuditService {
	return NewAuditService(repo, &mockUserFinder{}, zap.NewNop())
}

func TestLogFillsActorFromContext(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := newTestService(repo)

	userID := primitive.NewObjectID()
	ctx := context.WithValue(context.Background(), utils.UserClaimsKey, &utils.UserClaims{
		UserID:   userID.Hex(),
		Username: "vo-anita",
		Role:     models.RoleVO,
	})
	ctx = context.WithValue(ctx, models.RequestMetaKey, models.RequestMeta{
		IPAddress: "10.0.0.7",
		UserAgent: "curl/8.0",
	})

	err := svc.Log(ctx, Entry{
		Action:       models.AuditActionCreate,
		ResourceType: "crop_target",
		ResourceID:   "abc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(repo.created))
	}
	rec := repo.created[0]
	if rec.Username != "vo-anita" {
		t.Errorf("username = %q, want vo-anita", rec.Username)
	}
	if rec.UserID == nil || *rec.UserID != userID {
		t.Errorf("user id not carried over")
	}
	if rec.IPAddress != "10.0.0.7" || rec.UserAgent != "curl/8.0" {
		t.Errorf("request meta not carried over: %+v", rec)
	}
	if rec.Timestamp.IsZero() {
		t.Errorf("timestamp not set")
	}
}

func TestLogWithoutPrincipal(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := newTestService(repo)

	if err := svc.Log(context.Background(), Entry{
		Action:       models.AuditActionDelete,
		ResourceType: "audit_log",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.created[0].Username != "" || repo.created[0].UserID != nil {
		t.Errorf("expected anonymous record, got %+v", repo.created[0])
	}
}

func TestListActivityResolvesActorNames(t *testing.T) {
	anita := primitive.NewObjectID()
	ravi := primitive.NewObjectID()
	repo := &mockAuditRepo{listed: []AuditLog{
		{UserID: &anita, Username: "vo-anita", Action: models.AuditActionCreate},
		{UserID: &anita, Username: "vo-anita", Action: models.AuditActionSubmit},
		{UserID: &ravi, Username: "bo-ravi", Action: models.AuditActionApprove},
		{Action: models.AuditActionDelete},
	}}
	finder := &mockUserFinder{users: []models.User{
		{ID: anita, FullName: "Anita Rao"},
		{ID: ravi, FullName: "Ravi Kumar"},
	}}
	svc := NewAuditService(repo, finder, zap.NewNop())

	logs, total, err := svc.ListActivity(context.Background(), ActivityQuery{Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 4 {
		t.Fatalf("total = %d, want 4", total)
	}
	if finder.calls != 1 {
		t.Errorf("expected a single batched lookup, got %d", finder.calls)
	}
	if logs[0].ActorName != "Anita Rao" || logs[1].ActorName != "Anita Rao" {
		t.Errorf("actor name not resolved: %q, %q", logs[0].ActorName, logs[1].ActorName)
	}
	if logs[2].ActorName != "Ravi Kumar" {
		t.Errorf("actor name not resolved: %q", logs[2].ActorName)
	}
	if logs[3].ActorName != "" {
		t.Errorf("anonymous record should stay unnamed, got %q", logs[3].ActorName)
	}
}

func TestSummaryAssembly(t *testing.T) {
	repo := &mockAuditRepo{
		actionCounts: []ActionCount{
			{Action: "CREATE", Count: 4},
			{Action: "APPROVE", Count: 2},
		},
		resCounts: []ResourceCount{{ResourceType: "crop_target", Count: 6}},
		topUsers:  []UserActivity{{Username: "vo-anita", Count: 5}},
		hourly:    []HourBucket{{Hour: 9, Count: 6}},
	}
	svc := newTestService(repo)

	summary, err := svc.Summary(context.Background(), "24h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalActivities != 6 {
		t.Errorf("total = %d, want 6", summary.TotalActivities)
	}
	if summary.ActionBreakdown["CREATE"] != 4 || summary.ActionBreakdown["APPROVE"] != 2 {
		t.Errorf("action breakdown wrong: %+v", summary.ActionBreakdown)
	}
	if summary.ResourceBreakdown["crop_target"] != 6 {
		t.Errorf("resource breakdown wrong: %+v", summary.ResourceBreakdown)
	}
	if got := summary.EndTime.Sub(summary.StartTime); got != 24*time.Hour {
		t.Errorf("window = %v, want 24h", got)
	}
}

func TestSummaryRejectsUnknownPeriod(t *testing.T) {
	svc := newTestService(&mockAuditRepo{})

	_, err := svc.Summary(context.Background(), "48h")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCleanupRecordsItself(t *testing.T) {
	repo := &mockAuditRepo{deleted: 37}
	svc := newTestService(repo)

	deleted, err := svc.Cleanup(context.Background(), 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 37 {
		t.Errorf("deleted = %d, want 37", deleted)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one self-audit entry, got %d", len(repo.created))
	}
	rec := repo.created[0]
	if rec.Action != models.AuditActionDelete || rec.ResourceType != "audit_log" {
		t.Errorf("self-audit entry wrong: %+v", rec)
	}
	if rec.NewValues["deleted_count"] != int64(37) {
		t.Errorf("deleted count not recorded: %+v", rec.NewValues)
	}
}

func TestCleanupSkipsAuditWhenNothingDeleted(t *testing.T) {
	repo := &mockAuditRepo{deleted: 0}
	svc := newTestService(repo)

	if _, err := svc.Cleanup(context.Background(), 90); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 0 {
		t.Errorf("expected no self-audit entry, got %d", len(repo.created))
	}
}

func TestCleanupRejectsNonPositiveRetention(t *testing.T) {
	svc := newTestService(&mockAuditRepo{})

	_, err := svc.Cleanup(context.Background(), 0)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchRequiresTerm(t *testing.T) {
	svc := newTestService(&mockAuditRepo{})

	_, err := svc.Search(context.Background(), "", 10)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
