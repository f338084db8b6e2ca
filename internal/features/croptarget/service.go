package croptarget

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go-agri/internal/common/apperr"
	"go-agri/internal/common/models"
	"go-agri/internal/config"
	"go-agri/internal/database"
	"go-agri/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AuditLogger is the slice of the audit service this package needs.
type AuditLogger interface {
	Log(ctx context.Context, e audit.Entry) error
}

type CreateInput struct {
	Year           int      `json:"year"`
	Season         string   `json:"season"`
	State          string   `json:"state"`
	District       string   `json:"district"`
	Village        string   `json:"village"`
	CropName       string   `json:"crop_name"`
	CropVariety    string   `json:"crop_variety"`
	CropCategory   string   `json:"crop_category"`
	CultivableArea float64  `json:"cultivable_area"`
	TargetArea     float64  `json:"target_area"`
	TargetYield    *float64 `json:"target_yield"`
	Priority       string   `json:"priority"`
	Remarks        string   `json:"remarks"`
	Submit         bool     `json:"submit"`
}

// UpdateInput is an all-pointer patch; nil fields are left untouched.
type UpdateInput struct {
	Year           *int     `json:"year"`
	Season         *string  `json:"season"`
	State          *string  `json:"state"`
	District       *string  `json:"district"`
	Village        *string  `json:"village"`
	CropName       *string  `json:"crop_name"`
	CropVariety    *string  `json:"crop_variety"`
	CropCategory   *string  `json:"crop_category"`
	CultivableArea *float64 `json:"cultivable_area"`
	TargetArea     *float64 `json:"target_area"`
	TargetYield    *float64 `json:"target_yield"`
	Priority       *string  `json:"priority"`
	Remarks        *string  `json:"remarks"`
}

type ListQuery struct {
	Page         int64
	PageSize     int64
	SortBy       string
	SortOrder    string
	Year         int
	Season       string
	Status       string
	District     string
	Village      string
	CropName     string
	CropVariety  string
	CropCategory string
	Priority     string
}

type CropTargetService interface {
	Create(ctx context.Context, owner primitive.ObjectID, in CreateInput) (*CropTarget, error)
	Get(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) (*CropTarget, error)
	Update(ctx context.Context, id, owner primitive.ObjectID, in UpdateInput) (*CropTarget, error)
	Submit(ctx context.Context, id, owner primitive.ObjectID) (*CropTarget, error)
	Approve(ctx context.Context, id, approver primitive.ObjectID, remarks string) (*CropTarget, error)
	Reject(ctx context.Context, id, approver primitive.ObjectID, reason string) (*CropTarget, error)
	Delete(ctx context.Context, id, owner primitive.ObjectID, deletedBy string) error
	ListOwn(ctx context.Context, owner primitive.ObjectID, q ListQuery) ([]CropTarget, int64, error)
	ListPending(ctx context.Context, q ListQuery) ([]CropTarget, int64, error)
	ListAll(ctx context.Context, q ListQuery) ([]CropTarget, int64, error)
	Summary(ctx context.Context, scope SummaryScope) (*Summary, error)
	SummaryByDistrict(ctx context.Context, scope SummaryScope) ([]DistrictBucket, error)
}

// SummaryScope narrows an aggregation to one submitter and/or one planning
// period. Zero values mean no restriction.
type SummaryScope struct {
	Owner  *primitive.ObjectID
	Year   int
	Season string
}

func (sc SummaryScope) match() bson.M {
	match := bson.M{}
	if sc.Owner != nil {
		match["submitted_by"] = *sc.Owner
	}
	if sc.Year != 0 {
		match["year"] = sc.Year
	}
	if sc.Season != "" {
		match["season"] = sc.Season
	}
	return match
}

type CropTargetServiceImpl struct {
	Repo   CropTargetRepository
	Tx     database.TxRunner
	Audit  AuditLogger
	Config *config.Config
	Logger *zap.Logger
}

func NewCropTargetService(repo CropTargetRepository, tx database.TxRunner, auditLog AuditLogger, cfg *config.Config, logger *zap.Logger) CropTargetService {
	return &CropTargetServiceImpl{
		Repo:   repo,
		Tx:     tx,
		Audit:  auditLog,
		Config: cfg,
		Logger: logger,
	}
}

const resourceType = "crop_target"

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func (s *CropTargetServiceImpl) validateCreate(in CreateInput) map[string]string {
	fields := make(map[string]string)

	if in.Year < s.Config.MinYear || in.Year > s.Config.MaxYear {
		fields["year"] = fmt.Sprintf("must be between %d and %d", s.Config.MinYear, s.Config.MaxYear)
	}
	if !contains(ValidSeasons, in.Season) {
		fields["season"] = "must be one of " + strings.Join(ValidSeasons, ", ")
	}
	if strings.TrimSpace(in.State) == "" {
		fields["state"] = "is required"
	}
	if strings.TrimSpace(in.District) == "" {
		fields["district"] = "is required"
	}
	if strings.TrimSpace(in.Village) == "" {
		fields["village"] = "is required"
	}
	if strings.TrimSpace(in.CropName) == "" {
		fields["crop_name"] = "is required"
	}
	if in.CultivableArea <= 0 {
		fields["cultivable_area"] = "must be positive"
	}
	if in.TargetArea <= 0 {
		fields["target_area"] = "must be positive"
	} else if in.CultivableArea > 0 && in.TargetArea > in.CultivableArea {
		fields["target_area"] = "cannot exceed cultivable area"
	}
	if in.TargetYield != nil && *in.TargetYield <= 0 {
		fields["target_yield"] = "must be positive when set"
	}
	if in.Priority != "" && !contains(ValidPriorities, in.Priority) {
		fields["priority"] = "must be one of " + strings.Join(ValidPriorities, ", ")
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (s *CropTargetServiceImpl) Create(ctx context.Context, owner primitive.ObjectID, in CreateInput) (*CropTarget, error) {
	if fields := s.validateCreate(in); fields != nil {
		return nil, apperr.Validation("crop target validation failed", fields)
	}

	target := &CropTarget{
		Year:           in.Year,
		Season:         in.Season,
		State:          strings.TrimSpace(in.State),
		District:       strings.TrimSpace(in.District),
		Village:        strings.TrimSpace(in.Village),
		CropName:       strings.TrimSpace(in.CropName),
		CropVariety:    strings.TrimSpace(in.CropVariety),
		CropCategory:   strings.TrimSpace(in.CropCategory),
		CultivableArea: in.CultivableArea,
		TargetArea:     in.TargetArea,
		Status:         StatusDraft,
		Priority:       in.Priority,
		SubmittedBy:    owner,
		Remarks:        strings.TrimSpace(in.Remarks),
	}
	if in.TargetYield != nil {
		target.TargetYield = *in.TargetYield
	}
	if target.Priority == "" {
		target.Priority = "medium"
	}
	target.CalculateMetrics()

	// Creation is audited as CREATE even when the record is submitted in
	// the same call; the submitted status lands in the entry's new values.
	if in.Submit {
		now := time.Now().UTC()
		target.Status = StatusSubmitted
		target.SubmittedAt = &now
	}

	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.Repo.Create(txCtx, target); err != nil {
			return err
		}
		return s.Audit.Log(txCtx, audit.Entry{
			Action:       models.AuditActionCreate,
			ResourceType: resourceType,
			ResourceID:   target.ID.Hex(),
			Description:  fmt.Sprintf("created crop target for %s (%d %s)", target.CropName, target.Year, target.Season),
			NewValues: map[string]any{
				"crop_name":   target.CropName,
				"year":        target.Year,
				"season":      target.Season,
				"village":     target.Village,
				"target_area": target.TargetArea,
				"status":      string(target.Status),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("crop target created",
		zap.String("id", target.ID.Hex()),
		zap.String("crop", target.CropName),
		zap.String("status", string(target.Status)))
	return target, nil
}

// Get returns a record. VOs pass their own id as owner and can only see
// their records; a miss looks identical whether the record is absent or
// belongs to someone else.
func (s *CropTargetServiceImpl) Get(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) (*CropTarget, error) {
	var target *CropTarget
	var err error
	if owner != nil {
		target, err = s.Repo.FindOwned(ctx, id, *owner)
	} else {
		target, err = s.Repo.FindByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, apperr.NotFound("crop target not found")
	}
	return target, nil
}

// editableStatuses answers which statuses allow submitter edits under the
// configured policy.
func (s *CropTargetServiceImpl) editableStatuses() []Status {
	if s.Config.UpdatePolicy == config.UpdatePolicyLenient {
		return []Status{StatusDraft, StatusRejected}
	}
	return []Status{StatusDraft}
}

func (s *CropTargetServiceImpl) Update(ctx context.Context, id, owner primitive.ObjectID, in UpdateInput) (*CropTarget, error) {
	current, err := s.Repo.FindOwned(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("crop target not found")
	}

	editable := s.editableStatuses()
	if !statusIn(current.Status, editable) {
		return nil, apperr.InvalidState(fmt.Sprintf("crop target in status %q cannot be edited", current.Status))
	}

	set := bson.M{}
	oldValues := map[string]any{}
	newValues := map[string]any{}
	fields := map[string]string{}

	patch := func(name string, old, val any) {
		set[name] = val
		oldValues[name] = old
		newValues[name] = val
	}

	if in.Year != nil && *in.Year != current.Year {
		if *in.Year < s.Config.MinYear || *in.Year > s.Config.MaxYear {
			fields["year"] = fmt.Sprintf("must be between %d and %d", s.Config.MinYear, s.Config.MaxYear)
		} else {
			patch("year", current.Year, *in.Year)
		}
	}
	if in.Season != nil && *in.Season != current.Season {
		if !contains(ValidSeasons, *in.Season) {
			fields["season"] = "must be one of " + strings.Join(ValidSeasons, ", ")
		} else {
			patch("season", current.Season, *in.Season)
		}
	}
	if in.State != nil && *in.State != current.State {
		patch("state", current.State, strings.TrimSpace(*in.State))
	}
	if in.District != nil && *in.District != current.District {
		patch("district", current.District, strings.TrimSpace(*in.District))
	}
	if in.Village != nil && *in.Village != current.Village {
		patch("village", current.Village, strings.TrimSpace(*in.Village))
	}
	if in.CropName != nil && *in.CropName != current.CropName {
		if strings.TrimSpace(*in.CropName) == "" {
			fields["crop_name"] = "is required"
		} else {
			patch("crop_name", current.CropName, strings.TrimSpace(*in.CropName))
		}
	}
	if in.CropVariety != nil && *in.CropVariety != current.CropVariety {
		patch("crop_variety", current.CropVariety, strings.TrimSpace(*in.CropVariety))
	}
	if in.CropCategory != nil && *in.CropCategory != current.CropCategory {
		patch("crop_category", current.CropCategory, strings.TrimSpace(*in.CropCategory))
	}
	if in.Priority != nil && *in.Priority != current.Priority {
		if !contains(ValidPriorities, *in.Priority) {
			fields["priority"] = "must be one of " + strings.Join(ValidPriorities, ", ")
		} else {
			patch("priority", current.Priority, *in.Priority)
		}
	}
	if in.Remarks != nil && *in.Remarks != current.Remarks {
		patch("remarks", current.Remarks, strings.TrimSpace(*in.Remarks))
	}

	cultivable := current.CultivableArea
	if in.CultivableArea != nil && *in.CultivableArea != current.CultivableArea {
		if *in.CultivableArea <= 0 {
			fields["cultivable_area"] = "must be positive"
		} else {
			cultivable = *in.CultivableArea
			patch("cultivable_area", current.CultivableArea, *in.CultivableArea)
		}
	}
	area := current.TargetArea
	if in.TargetArea != nil && *in.TargetArea != current.TargetArea {
		if *in.TargetArea <= 0 {
			fields["target_area"] = "must be positive"
		} else {
			area = *in.TargetArea
			patch("target_area", current.TargetArea, *in.TargetArea)
		}
	}
	if area > cultivable {
		fields["target_area"] = "cannot exceed cultivable area"
	}
	yield := current.TargetYield
	if in.TargetYield != nil && *in.TargetYield != current.TargetYield {
		if *in.TargetYield <= 0 {
			fields["target_yield"] = "must be positive when set"
		} else {
			yield = *in.TargetYield
			patch("target_yield", current.TargetYield, *in.TargetYield)
		}
	}

	if len(fields) > 0 {
		return nil, apperr.Validation("crop target validation failed", fields)
	}
	if len(set) == 0 {
		return current, nil
	}

	if _, areaChanged := set["target_area"]; areaChanged || set["target_yield"] != nil {
		production := 0.0
		if area > 0 && yield > 0 {
			production = area * yield
		}
		if production != current.ExpectedProduction {
			patch("expected_production", current.ExpectedProduction, production)
		}
	}

	var updated *CropTarget
	err = s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		updated, err = s.Repo.UpdateFields(txCtx, id, owner, editable, set)
		if err != nil {
			return err
		}
		if updated == nil {
			return s.resolveMiss(txCtx, id, &owner)
		}
		return s.Audit.Log(txCtx, audit.Entry{
			Action:       models.AuditActionUpdate,
			ResourceType: resourceType,
			ResourceID:   id.Hex(),
			Description:  fmt.Sprintf("updated crop target %s", updated.CropName),
			OldValues:    oldValues,
			NewValues:    newValues,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// resolveMiss disambiguates a zero-match check-and-set: the record either
// vanished or raced into a disallowed status.
func (s *CropTargetServiceImpl) resolveMiss(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) error {
	var target *CropTarget
	var err error
	if owner != nil {
		target, err = s.Repo.FindOwned(ctx, id, *owner)
	} else {
		target, err = s.Repo.FindByID(ctx, id)
	}
	if err != nil {
		return err
	}
	if target == nil {
		return apperr.NotFound("crop target not found")
	}
	return apperr.InvalidState(fmt.Sprintf("crop target is in status %q", NormalizeStatus(string(target.Status))))
}

func statusIn(s Status, list []Status) bool {
	normalized := NormalizeStatus(string(s))
	for _, item := range list {
		if normalized == item {
			return true
		}
	}
	return false
}

func (s *CropTargetServiceImpl) Submit(ctx context.Context, id, owner primitive.ObjectID) (*CropTarget, error) {
	now := time.Now().UTC()
	set := bson.M{
		"status":       string(StatusSubmitted),
		"submitted_at": now,
	}
	// A resubmit discards the previous rejection reason.
	unset := bson.M{"rejection_reason": ""}

	var target *CropTarget
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		target, err = s.Repo.Transition(txCtx, id, &owner, []Status{StatusDraft, StatusRejected}, set, unset)
		if err != nil {
			return err
		}
		if target == nil {
			return s.resolveMiss(txCtx, id, &owner)
		}
		return s.Audit.Log(txCtx, audit.Entry{
			Action:       models.AuditActionSubmit,
			ResourceType: resourceType,
			ResourceID:   id.Hex(),
			Description:  fmt.Sprintf("submitted crop target %s for approval", target.CropName),
			NewValues:    map[string]any{"status": string(StatusSubmitted)},
		})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("crop target submitted", zap.String("id", id.Hex()))
	return target, nil
}

func (s *CropTargetServiceImpl) Approve(ctx context.Context, id, approver primitive.ObjectID, remarks string) (*CropTarget, error) {
	now := time.Now().UTC()
	set := bson.M{
		"status":      string(StatusApproved),
		"approved_by": approver,
		"approved_at": now,
	}
	if remarks = strings.TrimSpace(remarks); remarks != "" {
		set["remarks"] = remarks
	}

	var target *CropTarget
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		target, err = s.Repo.Transition(txCtx, id, nil, []Status{StatusSubmitted}, set, nil)
		if err != nil {
			return err
		}
		if target == nil {
			return s.resolveMiss(txCtx, id, nil)
		}
		return s.Audit.Log(txCtx, audit.Entry{
			Action:       models.AuditActionApprove,
			ResourceType: resourceType,
			ResourceID:   id.Hex(),
			Description:  fmt.Sprintf("approved crop target %s", target.CropName),
			NewValues: map[string]any{
				"status":      string(StatusApproved),
				"approved_by": approver.Hex(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("crop target approved",
		zap.String("id", id.Hex()),
		zap.String("approver", approver.Hex()))
	return target, nil
}

func (s *CropTargetServiceImpl) Reject(ctx context.Context, id, approver primitive.ObjectID, reason string) (*CropTarget, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("rejection reason is required", map[string]string{
			"rejection_reason": "must not be empty",
		})
	}

	set := bson.M{
		"status":           string(StatusRejected),
		"rejection_reason": reason,
	}

	var target *CropTarget
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		target, err = s.Repo.Transition(txCtx, id, nil, []Status{StatusSubmitted}, set, nil)
		if err != nil {
			return err
		}
		if target == nil {
			return s.resolveMiss(txCtx, id, nil)
		}
		return s.Audit.Log(txCtx, audit.Entry{
			Action:       models.AuditActionReject,
			ResourceType: resourceType,
			ResourceID:   id.Hex(),
			Description:  fmt.Sprintf("rejected crop target %s", target.CropName),
			NewValues: map[string]any{
				"status":           string(StatusRejected),
				"rejection_reason": reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("crop target rejected", zap.String("id", id.Hex()))
	return target, nil
}

func (s *CropTargetServiceImpl) Delete(ctx context.Context, id, owner primitive.ObjectID, deletedBy string) error {
	if !s.Config.AllowDelete {
		return apperr.PermissionDenied("crop target deletion is disabled")
	}

	return s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		target, err := s.Repo.SoftDelete(txCtx, id, owner, deletedBy)
		if err != nil {
			return err
		}
		if target == nil {
			return s.resolveMiss(txCtx, id, &owner)
		}
		return s.Audit.Log(txCtx, audit.Entry{
			Action:       models.AuditActionDelete,
			ResourceType: resourceType,
			ResourceID:   id.Hex(),
			Description:  fmt.Sprintf("deleted draft crop target %s", target.CropName),
			OldValues: map[string]any{
				"crop_name": target.CropName,
				"year":      target.Year,
				"season":    target.Season,
			},
		})
	})
}

var listSortFields = map[string]string{
	"created_at":   "created_at",
	"submitted_at": "submitted_at",
	"year":         "year",
	"target_area":  "target_area",
	"crop_name":    "crop_name",
}

func substringRegex(term string) bson.M {
	return bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}}
}

// buildListFilter turns a query into a Mongo filter. Free-text fields match
// as case-insensitive substrings; everything else matches exactly.
func buildListFilter(q ListQuery) (bson.M, error) {
	filter := bson.M{}

	if q.Year != 0 {
		filter["year"] = q.Year
	}
	if q.Status != "" {
		status := NormalizeStatus(q.Status)
		switch status {
		case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
			filter["status"] = bson.M{"$in": awaitingApproval(status)}
		default:
			return nil, apperr.Validation("invalid status filter", map[string]string{
				"status": "must be one of draft, submitted, approved, rejected",
			})
		}
	}
	if q.District != "" {
		filter["district"] = q.District
	}
	if q.Priority != "" {
		filter["priority"] = q.Priority
	}
	if q.CropCategory != "" {
		filter["crop_category"] = q.CropCategory
	}
	if q.Season != "" {
		filter["season"] = substringRegex(q.Season)
	}
	if q.Village != "" {
		filter["village"] = substringRegex(q.Village)
	}
	if q.CropName != "" {
		filter["crop_name"] = substringRegex(q.CropName)
	}
	if q.CropVariety != "" {
		filter["crop_variety"] = substringRegex(q.CropVariety)
	}

	return filter, nil
}

func (s *CropTargetServiceImpl) list(ctx context.Context, filter bson.M, q ListQuery, defaultSort string) ([]CropTarget, int64, error) {
	page, pageSize := models.ClampPage(q.Page, q.PageSize, s.Config.DefaultPageSize, s.Config.MaxPageSize)

	sortBy, ok := listSortFields[q.SortBy]
	if !ok {
		sortBy = defaultSort
	}
	sortOrder := -1
	if q.SortOrder == "asc" {
		sortOrder = 1
	}

	total, err := s.Repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	targets, err := s.Repo.List(ctx, filter, pageSize, (page-1)*pageSize, sortBy, sortOrder)
	if err != nil {
		return nil, 0, err
	}
	return targets, total, nil
}

func (s *CropTargetServiceImpl) ListOwn(ctx context.Context, owner primitive.ObjectID, q ListQuery) ([]CropTarget, int64, error) {
	filter, err := buildListFilter(q)
	if err != nil {
		return nil, 0, err
	}
	filter["submitted_by"] = owner
	return s.list(ctx, filter, q, "created_at")
}

func (s *CropTargetServiceImpl) ListPending(ctx context.Context, q ListQuery) ([]CropTarget, int64, error) {
	q.Status = string(StatusSubmitted)
	filter, err := buildListFilter(q)
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, filter, q, "submitted_at")
}

func (s *CropTargetServiceImpl) ListAll(ctx context.Context, q ListQuery) ([]CropTarget, int64, error) {
	filter, err := buildListFilter(q)
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, filter, q, "created_at")
}

func (s *CropTargetServiceImpl) Summary(ctx context.Context, scope SummaryScope) (*Summary, error) {
	return s.Repo.Summarize(ctx, scope.match())
}

func (s *CropTargetServiceImpl) SummaryByDistrict(ctx context.Context, scope SummaryScope) ([]DistrictBucket, error) {
	return s.Repo.SummarizeByDistrict(ctx, scope.match())
}
