package croptarget

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the workflow state of a crop target.
// draft -> submitted -> {approved, rejected}; rejected -> submitted (resubmit).
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// statusPendingAlias survives in legacy rows and old call sites; it is
// normalized to submitted everywhere.
const statusPendingAlias = "pending"

// NormalizeStatus collapses the pending alias onto the canonical
// awaiting-approval state.
func NormalizeStatus(s string) Status {
	if s == statusPendingAlias {
		return StatusSubmitted
	}
	return Status(s)
}

// awaitingApproval expands a canonical status into the raw values that may
// be stored for it, for use in transition filters.
func awaitingApproval(s Status) []string {
	if s == StatusSubmitted {
		return []string{string(StatusSubmitted), statusPendingAlias}
	}
	return []string{string(s)}
}

var ValidSeasons = []string{"Kharif", "Rabi", "Summer"}

var ValidPriorities = []string{"low", "medium", "high"}

// CropTarget is the planning record a VO submits and a BO reviews.
type CropTarget struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Year   int    `bson:"year" json:"year"`
	Season string `bson:"season" json:"season"`

	State    string `bson:"state" json:"state"`
	District string `bson:"district" json:"district"`
	Village  string `bson:"village" json:"village"`

	CropName     string `bson:"crop_name" json:"crop_name"`
	CropVariety  string `bson:"crop_variety,omitempty" json:"crop_variety,omitempty"`
	CropCategory string `bson:"crop_category,omitempty" json:"crop_category,omitempty"` // Agriculture, Horticulture

	CultivableArea     float64 `bson:"cultivable_area" json:"cultivable_area"`                   // hectares
	TargetArea         float64 `bson:"target_area" json:"target_area"`                           // hectares
	TargetYield        float64 `bson:"target_yield,omitempty" json:"target_yield,omitempty"`     // tons/hectare
	ExpectedProduction float64 `bson:"expected_production,omitempty" json:"expected_production"` // tons

	Status   Status `bson:"status" json:"status"`
	Priority string `bson:"priority" json:"priority"`

	SubmittedBy primitive.ObjectID  `bson:"submitted_by" json:"submitted_by"`
	SubmittedAt *time.Time          `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
	ApprovedBy  *primitive.ObjectID `bson:"approved_by,omitempty" json:"approved_by,omitempty"`
	ApprovedAt  *time.Time          `bson:"approved_at,omitempty" json:"approved_at,omitempty"`

	Remarks         string `bson:"remarks,omitempty" json:"remarks,omitempty"`
	RejectionReason string `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`
	InternalNotes   string `bson:"internal_notes,omitempty" json:"-"` // BO internal use

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	Deleted   bool       `bson:"deleted" json:"-"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"-"`
	DeletedBy string     `bson:"deleted_by,omitempty" json:"-"`
}

// CalculateMetrics recomputes the derived production figure. Called on every
// create and on any update touching target_area or target_yield.
func (t *CropTarget) CalculateMetrics() {
	if t.TargetArea > 0 && t.TargetYield > 0 {
		t.ExpectedProduction = t.TargetArea * t.TargetYield
	} else {
		t.ExpectedProduction = 0
	}
}

// IsPendingApproval reports whether a BO decision is still possible.
func (t *CropTarget) IsPendingApproval() bool {
	return NormalizeStatus(string(t.Status)) == StatusSubmitted
}

// Summary is the aggregate view grouped by status, computed in a single
// aggregation pass over the filtered set.
type Summary struct {
	TotalTargets        int64              `json:"total_targets"`
	StatusCounts        map[string]int64   `json:"status_counts"`
	AreaByStatus        map[string]float64 `json:"area_by_status"`
	TotalCultivableArea float64            `json:"total_cultivable_area"`
	TotalTargetArea     float64            `json:"total_target_area"`
	ExpectedProduction  float64            `json:"expected_production"` // approved only
	ApprovalRate        float64            `json:"approval_rate"`
}

// statusBucket is one $group result row from the summary pipeline.
type statusBucket struct {
	Status             string  `bson:"_id"`
	Count              int64   `bson:"count"`
	TargetArea         float64 `bson:"target_area"`
	CultivableArea     float64 `bson:"cultivable_area"`
	ExpectedProduction float64 `bson:"expected_production"`
}

// DistrictBucket is the per-district slice of the approver's breakdown.
type DistrictBucket struct {
	District   string  `bson:"_id" json:"district"`
	Count      int64   `bson:"count" json:"count"`
	TargetArea float64 `bson:"target_area" json:"target_area"`
}
