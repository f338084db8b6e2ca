package croptarget

import (
	"testing"

	"go-agri/internal/common/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNormalizeStatus(t *testing.T) {
	if NormalizeStatus("pending") != StatusSubmitted {
		t.Errorf("pending must normalize to submitted")
	}
	if NormalizeStatus("approved") != StatusApproved {
		t.Errorf("approved must pass through")
	}
}

func TestCalculateMetrics(t *testing.T) {
	tests := []struct {
		name  string
		area  float64
		yield float64
		want  float64
	}{
		{"both set", 100, 2.5, 250},
		{"no yield", 100, 0, 0},
		{"no area", 0, 2.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := CropTarget{TargetArea: tt.area, TargetYield: tt.yield}
			target.CalculateMetrics()
			if target.ExpectedProduction != tt.want {
				t.Errorf("expected_production = %v, want %v", target.ExpectedProduction, tt.want)
			}
		})
	}
}

func TestBuildListFilterSubstringFields(t *testing.T) {
	filter, err := buildListFilter(ListQuery{
		CropName: "pad",
		Village:  "pas",
		District: "Warangal",
		Year:     2026,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, field := range []string{"crop_name", "village"} {
		clause, ok := filter[field].(bson.M)
		if !ok {
			t.Fatalf("%s should be a regex clause, got %T", field, filter[field])
		}
		regex, ok := clause["$regex"].(primitive.Regex)
		if !ok || regex.Options != "i" {
			t.Errorf("%s should match case-insensitively, got %v", field, clause)
		}
	}

	if filter["district"] != "Warangal" {
		t.Errorf("district must match exactly, got %v", filter["district"])
	}
	if filter["year"] != 2026 {
		t.Errorf("year must match exactly, got %v", filter["year"])
	}
}

func TestBuildListFilterEscapesRegexMeta(t *testing.T) {
	filter, err := buildListFilter(ListQuery{CropName: "a.b*"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	regex := filter["crop_name"].(bson.M)["$regex"].(primitive.Regex)
	if regex.Pattern != `a\.b\*` {
		t.Errorf("pattern = %q, meta characters must be escaped", regex.Pattern)
	}
}

func TestBuildListFilterStatusExpandsAlias(t *testing.T) {
	for _, q := range []string{"submitted", "pending"} {
		filter, err := buildListFilter(ListQuery{Status: q})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		in := filter["status"].(bson.M)["$in"].([]string)
		if len(in) != 2 {
			t.Errorf("status %q should match both stored spellings, got %v", q, in)
		}
	}

	filter, err := buildListFilter(ListQuery{Status: "draft"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := filter["status"].(bson.M)["$in"].([]string)
	if len(in) != 1 || in[0] != "draft" {
		t.Errorf("draft should match only itself, got %v", in)
	}
}

func TestBuildListFilterRejectsUnknownStatus(t *testing.T) {
	_, err := buildListFilter(ListQuery{Status: "archived"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSummaryFromBuckets(t *testing.T) {
	buckets := []statusBucket{
		{Status: "draft", Count: 2, TargetArea: 40, CultivableArea: 60},
		{Status: "submitted", Count: 3, TargetArea: 70, CultivableArea: 100, ExpectedProduction: 140},
		{Status: "pending", Count: 1, TargetArea: 30, CultivableArea: 50, ExpectedProduction: 60},
		{Status: "approved", Count: 4, TargetArea: 90, CultivableArea: 120, ExpectedProduction: 200},
	}

	s := summaryFromBuckets(buckets)

	if s.TotalTargets != 10 {
		t.Errorf("total = %d, want 10", s.TotalTargets)
	}
	// legacy pending rows fold into submitted
	if s.StatusCounts["submitted"] != 4 {
		t.Errorf("submitted count = %d, want 4", s.StatusCounts["submitted"])
	}
	if _, ok := s.StatusCounts["pending"]; ok {
		t.Errorf("pending must not survive normalization")
	}
	// target area counts approved plus awaiting-approval
	if s.TotalTargetArea != 190 {
		t.Errorf("total target area = %v, want 190", s.TotalTargetArea)
	}
	// production counts approved only
	if s.ExpectedProduction != 200 {
		t.Errorf("expected production = %v, want 200", s.ExpectedProduction)
	}
	if s.ApprovalRate != 40 {
		t.Errorf("approval rate = %v, want 40", s.ApprovalRate)
	}
}
