package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go-agri/internal/common/models"
	"go-agri/internal/config"
	"go-agri/internal/features/audit"
	"go-agri/internal/features/croptarget"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ExportService interface {
	// TargetsToExcel renders the filtered crop targets into an xlsx
	// workbook. owner scopes the export to one submitter when set.
	TargetsToExcel(ctx context.Context, owner *primitive.ObjectID, q croptarget.ListQuery) ([]byte, string, error)
}

type ExportServiceImpl struct {
	Targets croptarget.CropTargetService
	Audit   audit.AuditService
	Config  *config.Config
	Logger  *zap.Logger
}

func NewExportService(targets croptarget.CropTargetService, auditService audit.AuditService, cfg *config.Config, logger *zap.Logger) ExportService {
	return &ExportServiceImpl{
		Targets: targets,
		Audit:   auditService,
		Config:  cfg,
		Logger:  logger,
	}
}

var exportColumns = []string{
	"Year", "Season", "State", "District", "Village",
	"Crop Name", "Crop Variety", "Crop Category",
	"Cultivable Area (ha)", "Target Area (ha)", "Target Yield (t/ha)", "Expected Production (t)",
	"Status", "Priority", "Submitted At", "Approved At", "Remarks", "Rejection Reason",
}

func (s *ExportServiceImpl) TargetsToExcel(ctx context.Context, owner *primitive.ObjectID, q croptarget.ListQuery) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Crop Targets"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	// Page at the listing clamp so a full page never looks final
	// while more rows remain.
	pageSize := s.Config.MaxPageSize
	row := 2
	total := 0
	q.PageSize = pageSize
	for page := int64(1); ; page++ {
		q.Page = page

		var targets []croptarget.CropTarget
		var err error
		if owner != nil {
			targets, _, err = s.Targets.ListOwn(ctx, *owner, q)
		} else {
			targets, _, err = s.Targets.ListAll(ctx, q)
		}
		if err != nil {
			return nil, "", err
		}
		if len(targets) == 0 {
			break
		}

		for _, t := range targets {
			writeTargetRow(f, sheetName, row, t)
			row++
			total++
		}
		if int64(len(targets)) < pageSize {
			break
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("crop_targets_%s.xlsx", time.Now().UTC().Format("20060102_150405"))

	if err := s.Audit.Log(ctx, audit.Entry{
		Action:       models.AuditActionExport,
		ResourceType: "crop_target",
		Description:  fmt.Sprintf("exported %d crop targets to %s", total, filename),
		NewValues:    map[string]any{"row_count": total, "filename": filename},
	}); err != nil {
		s.Logger.Warn("failed to audit export", zap.Error(err))
	}

	return buf.Bytes(), filename, nil
}

func writeTargetRow(f *excelize.File, sheet string, row int, t croptarget.CropTarget) {
	values := []any{
		t.Year, t.Season, t.State, t.District, t.Village,
		t.CropName, t.CropVariety, t.CropCategory,
		t.CultivableArea, t.TargetArea, t.TargetYield, t.ExpectedProduction,
		string(croptarget.NormalizeStatus(string(t.Status))), t.Priority,
		formatTime(t.SubmittedAt), formatTime(t.ApprovedAt),
		t.Remarks, t.RejectionReason,
	}
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
