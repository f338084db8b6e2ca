package export

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"go-agri/internal/config"
	"go-agri/internal/features/audit"
	"go-agri/internal/features/croptarget"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type passTx struct{}

func (passTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// pagedRepo serves a fixed slice of targets through List/Count the way the
// real repository would, honoring limit and offset.
type pagedRepo struct {
	targets []croptarget.CropTarget
}

func (r *pagedRepo) Create(ctx context.Context, target *croptarget.CropTarget) error { return nil }

func (r *pagedRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*croptarget.CropTarget, error) {
	return nil, nil
}

func (r *pagedRepo) FindOwned(ctx context.Context, id, owner primitive.ObjectID) (*croptarget.CropTarget, error) {
	return nil, nil
}

func (r *pagedRepo) List(ctx context.Context, filter bson.M, limit, offset int64, sortBy string, sortOrder int) ([]croptarget.CropTarget, error) {
	if offset >= int64(len(r.targets)) {
		return nil, nil
	}
	end := offset + limit
	if end > int64(len(r.targets)) {
		end = int64(len(r.targets))
	}
	return r.targets[offset:end], nil
}

func (r *pagedRepo) Count(ctx context.Context, filter bson.M) (int64, error) {
	return int64(len(r.targets)), nil
}

func (r *pagedRepo) UpdateFields(ctx context.Context, id, owner primitive.ObjectID, from []croptarget.Status, set bson.M) (*croptarget.CropTarget, error) {
	return nil, nil
}

func (r *pagedRepo) Transition(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID, from []croptarget.Status, set bson.M, unset bson.M) (*croptarget.CropTarget, error) {
	return nil, nil
}

func (r *pagedRepo) SoftDelete(ctx context.Context, id, owner primitive.ObjectID, deletedBy string) (*croptarget.CropTarget, error) {
	return nil, nil
}

func (r *pagedRepo) Summarize(ctx context.Context, match bson.M) (*croptarget.Summary, error) {
	return &croptarget.Summary{}, nil
}

func (r *pagedRepo) SummarizeByDistrict(ctx context.Context, match bson.M) ([]croptarget.DistrictBucket, error) {
	return nil, nil
}

type recordingAudit struct {
	entries []audit.Entry
}

func (a *recordingAudit) Log(ctx context.Context, e audit.Entry) error {
	a.entries = append(a.entries, e)
	return nil
}

func (a *recordingAudit) ListActivity(ctx context.Context, q audit.ActivityQuery) ([]audit.AuditLog, int64, error) {
	return nil, 0, nil
}

func (a *recordingAudit) Summary(ctx context.Context, period string) (*audit.ActivitySummary, error) {
	return &audit.ActivitySummary{}, nil
}

func (a *recordingAudit) Search(ctx context.Context, term string, limit int64) ([]audit.AuditLog, error) {
	return nil, nil
}

func (a *recordingAudit) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	return 0, nil
}

func exportTestConfig() *config.Config {
	return &config.Config{
		DefaultPageSize: 20,
		MaxPageSize:     100,
		MinYear:         2000,
		MaxYear:         2100,
		UpdatePolicy:    config.UpdatePolicyStrict,
	}
}

// The listing layer clamps page sizes, so an export over more records than
// one clamped page must keep paging until the dataset is exhausted.
func TestTargetsToExcelSpansAllPages(t *testing.T) {
	const recordCount = 250

	targets := make([]croptarget.CropTarget, 0, recordCount)
	for i := 0; i < recordCount; i++ {
		targets = append(targets, croptarget.CropTarget{
			ID:       primitive.NewObjectID(),
			Year:     2026,
			Season:   "Kharif",
			District: "Warangal",
			Village:  fmt.Sprintf("village-%03d", i),
			CropName: "Paddy",
			Status:   croptarget.StatusDraft,
			Priority: "medium",
		})
	}

	cfg := exportTestConfig()
	repo := &pagedRepo{targets: targets}
	auditLog := &recordingAudit{}
	targetSvc := croptarget.NewCropTargetService(repo, passTx{}, auditLog, cfg, zap.NewNop())
	svc := NewExportService(targetSvc, auditLog, cfg, zap.NewNop())

	data, filename, err := svc.TargetsToExcel(context.Background(), nil, croptarget.ListQuery{})
	if err != nil {
		t.Fatalf("TargetsToExcel: %v", err)
	}
	if filename == "" {
		t.Fatal("expected a filename")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Crop Targets")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if got := len(rows) - 1; got != recordCount {
		t.Fatalf("expected %d data rows, got %d", recordCount, got)
	}
	if rows[1][4] != "village-000" || rows[len(rows)-1][4] != fmt.Sprintf("village-%03d", recordCount-1) {
		t.Fatalf("unexpected first/last rows: %q / %q", rows[1][4], rows[len(rows)-1][4])
	}

	if len(auditLog.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(auditLog.entries))
	}
	if got := auditLog.entries[0].NewValues["row_count"]; got != recordCount {
		t.Fatalf("expected row_count %d, got %v", recordCount, got)
	}
}
