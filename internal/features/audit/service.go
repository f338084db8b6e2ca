package audit

import (
	"context"
	"fmt"
	"time"

	"go-agri/internal/common/apperr"
	"go-agri/internal/common/models"
	"go-agri/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type AuditService interface {
	Log(ctx context.Context, e Entry) error
	ListActivity(ctx context.Context, q ActivityQuery) ([]AuditLog, int64, error)
	Summary(ctx context.Context, period string) (*ActivitySummary, error)
	Search(ctx context.Context, term string, limit int64) ([]AuditLog, error)
	Cleanup(ctx context.Context, retentionDays int) (int64, error)
}

// UserFinder resolves actor ids to user records so listings can carry
// display names without denormalizing them into every log record.
type UserFinder interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

type AuditServiceImpl struct {
	Repo   AuditRepository
	Users  UserFinder
	Logger *zap.Logger
}

func NewAuditService(repo AuditRepository, users UserFinder, logger *zap.Logger) AuditService {
	return &AuditServiceImpl{Repo: repo, Users: users, Logger: logger}
}

// Log appends one audit record. The acting user and request metadata are
// taken from the context set up by the auth middleware, so callers only
// describe the change itself.
func (s *AuditServiceImpl) Log(ctx context.Context, e Entry) error {
	record := &AuditLog{
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Description:  e.Description,
		OldValues:    e.OldValues,
		NewValues:    e.NewValues,
		Timestamp:    time.Now().UTC(),
	}

	if claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims); ok && claims != nil {
		record.Username = claims.Username
		if oid, err := primitive.ObjectIDFromHex(claims.UserID); err == nil {
			record.UserID = &oid
		}
	}
	if meta, ok := ctx.Value(models.RequestMetaKey).(models.RequestMeta); ok {
		record.IPAddress = meta.IPAddress
		record.UserAgent = meta.UserAgent
	}

	return s.Repo.Create(ctx, record)
}

func (s *AuditServiceImpl) ListActivity(ctx context.Context, q ActivityQuery) ([]AuditLog, int64, error) {
	filter := bson.M{}

	if q.UserID != "" {
		oid, err := primitive.ObjectIDFromHex(q.UserID)
		if err != nil {
			return nil, 0, apperr.Validation("invalid user id", map[string]string{"user_id": "must be a valid object id"})
		}
		filter["user_id"] = oid
	}
	if q.Username != "" {
		filter["username"] = q.Username
	}
	if q.Action != "" {
		filter["action"] = q.Action
	}
	if q.ResourceType != "" {
		filter["resource_type"] = q.ResourceType
	}
	if q.ResourceID != "" {
		filter["resource_id"] = q.ResourceID
	}
	if q.From != nil || q.To != nil {
		window := bson.M{}
		if q.From != nil {
			window["$gte"] = *q.From
		}
		if q.To != nil {
			window["$lte"] = *q.To
		}
		filter["timestamp"] = window
	}

	offset := (q.Page - 1) * q.PageSize
	logs, total, err := s.Repo.List(ctx, filter, q.PageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	s.resolveActorNames(ctx, logs)
	return logs, total, nil
}

// resolveActorNames fills in display names for the listed actors. A lookup
// failure degrades the listing, it does not fail it.
func (s *AuditServiceImpl) resolveActorNames(ctx context.Context, logs []AuditLog) {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, l := range logs {
		if l.UserID == nil {
			continue
		}
		if _, ok := seen[*l.UserID]; ok {
			continue
		}
		seen[*l.UserID] = struct{}{}
		ids = append(ids, *l.UserID)
	}
	if len(ids) == 0 {
		return
	}

	users, err := s.Users.FindByIDs(ctx, ids)
	if err != nil {
		s.Logger.Warn("failed to resolve audit actor names", zap.Error(err))
		return
	}

	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	for i := range logs {
		if logs[i].UserID != nil {
			logs[i].ActorName = names[*logs[i].UserID]
		}
	}
}

func (s *AuditServiceImpl) Summary(ctx context.Context, period string) (*ActivitySummary, error) {
	window, ok := timeWindows[period]
	if !ok {
		return nil, apperr.Validation("invalid time period", map[string]string{
			"time_period": "must be one of 1h, 24h, 7d, 30d",
		})
	}

	end := time.Now().UTC()
	start := end.Add(-window)

	actions, err := s.Repo.CountByAction(ctx, start)
	if err != nil {
		return nil, err
	}
	resources, err := s.Repo.CountByResource(ctx, start)
	if err != nil {
		return nil, err
	}
	topUsers, err := s.Repo.TopUsers(ctx, start, 10)
	if err != nil {
		return nil, err
	}
	hourly, err := s.Repo.HourlyHistogram(ctx, start)
	if err != nil {
		return nil, err
	}

	summary := &ActivitySummary{
		TimePeriod:         period,
		StartTime:          start,
		EndTime:            end,
		ActionBreakdown:    make(map[string]int64, len(actions)),
		ResourceBreakdown:  make(map[string]int64, len(resources)),
		TopUsers:           topUsers,
		HourlyDistribution: hourly,
	}
	for _, a := range actions {
		summary.ActionBreakdown[a.Action] = a.Count
		summary.TotalActivities += a.Count
	}
	for _, r := range resources {
		summary.ResourceBreakdown[r.ResourceType] = r.Count
	}
	return summary, nil
}

func (s *AuditServiceImpl) Search(ctx context.Context, term string, limit int64) ([]AuditLog, error) {
	if term == "" {
		return nil, apperr.Validation("search term is required", map[string]string{"q": "must not be empty"})
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.Repo.Search(ctx, term, limit)
}

// Cleanup removes audit records older than the retention window and records
// the purge itself as a DELETE entry so the trail stays self-describing.
func (s *AuditServiceImpl) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, apperr.Validation("retention must be positive", map[string]string{
			"retention_days": "must be greater than zero",
		})
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	deleted, err := s.Repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	s.Logger.Info("audit retention cleanup finished",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff))

	if deleted > 0 {
		if err := s.Log(ctx, Entry{
			Action:       models.AuditActionDelete,
			ResourceType: "audit_log",
			Description:  fmt.Sprintf("purged %d audit records older than %d days", deleted, retentionDays),
			NewValues: map[string]any{
				"deleted_count":  deleted,
				"retention_days": retentionDays,
				"cutoff":         cutoff,
			},
		}); err != nil {
			s.Logger.Warn("failed to record cleanup audit entry", zap.Error(err))
		}
	}
	return deleted, nil
}
