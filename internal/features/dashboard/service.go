package dashboard

import (
	"context"

	"go-agri/internal/features/croptarget"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VODashboard is the submitter's home view.
type VODashboard struct {
	Summary *croptarget.Summary     `json:"summary"`
	Recent  []croptarget.CropTarget `json:"recent"`
}

// BODashboard is the approver's home view.
type BODashboard struct {
	Summary       *croptarget.Summary         `json:"summary"`
	ByDistrict    []croptarget.DistrictBucket `json:"by_district"`
	PendingCount  int64                       `json:"pending_count"`
	OldestPending []croptarget.CropTarget     `json:"oldest_pending"`
}

type DashboardService interface {
	ForSubmitter(ctx context.Context, owner primitive.ObjectID) (*VODashboard, error)
	ForApprover(ctx context.Context) (*BODashboard, error)
}

type DashboardServiceImpl struct {
	Targets croptarget.CropTargetService
}

func NewDashboardService(targets croptarget.CropTargetService) DashboardService {
	return &DashboardServiceImpl{Targets: targets}
}

const recentCount = 5

func (s *DashboardServiceImpl) ForSubmitter(ctx context.Context, owner primitive.ObjectID) (*VODashboard, error) {
	summary, err := s.Targets.Summary(ctx, croptarget.SummaryScope{Owner: &owner})
	if err != nil {
		return nil, err
	}

	recent, _, err := s.Targets.ListOwn(ctx, owner, croptarget.ListQuery{
		Page:      1,
		PageSize:  recentCount,
		SortBy:    "created_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, err
	}

	return &VODashboard{Summary: summary, Recent: recent}, nil
}

func (s *DashboardServiceImpl) ForApprover(ctx context.Context) (*BODashboard, error) {
	summary, err := s.Targets.Summary(ctx, croptarget.SummaryScope{})
	if err != nil {
		return nil, err
	}

	byDistrict, err := s.Targets.SummaryByDistrict(ctx, croptarget.SummaryScope{})
	if err != nil {
		return nil, err
	}

	// Oldest submissions first so the backlog surfaces.
	oldest, total, err := s.Targets.ListPending(ctx, croptarget.ListQuery{
		Page:      1,
		PageSize:  recentCount,
		SortBy:    "submitted_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, err
	}

	return &BODashboard{
		Summary:       summary,
		ByDistrict:    byDistrict,
		PendingCount:  total,
		OldestPending: oldest,
	}, nil
}
