// Package report recomputes the summary tables and writes the run's Excel
// report workbook.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"pharmatrack/internal/config"
	"pharmatrack/internal/customer"
	"pharmatrack/internal/logging"
	"pharmatrack/internal/store"
	"pharmatrack/internal/tracker"
)

const (
	countSheet   = "Include_Exclude_Count"
	overallSheet = "Overall_Report"
)

// Generator turns a run's report tables and the staged tracker into the
// published workbook.
type Generator struct {
	store  *store.Store
	cfg    *config.Config
	logger *slog.Logger
}

// New builds a Generator. A nil logger is replaced with a no-op logger.
func New(st *store.Store, cfg *config.Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{store: st, cfg: cfg, logger: logging.WithComponent(logger, "report")}
}

// Generate recomputes both summary tables from scratch and writes the
// report workbook into the run's output directory. It returns the workbook
// path.
func (g *Generator) Generate(ctx context.Context, runID int64, bindings []*customer.Binding, trackerPath string) (string, error) {
	summary := make([]store.SummaryRow, 0, len(bindings))
	for _, binding := range bindings {
		counts, err := g.store.CountReportRecords(ctx, binding.Table, runID)
		if err != nil {
			return "", fmt.Errorf("count %s: %w", binding.Customer.Name, err)
		}
		summary = append(summary, store.SummaryRow{
			CustomerName: binding.Customer.Name,
			Include:      counts.Include,
			Exclude:      counts.Exclude,
			Total:        counts.Total,
		})
	}

	overall, err := tracker.ReadRows(trackerPath, g.cfg)
	if err != nil {
		return "", fmt.Errorf("read tracker for overall report: %w", err)
	}

	if err := g.store.ReplaceSummary(ctx, runID, summary, overall); err != nil {
		return "", err
	}

	outputDir := g.cfg.OutputDir(runID)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure output dir: %w", err)
	}
	reportPath := filepath.Join(outputDir, fmt.Sprintf("PharmaTrack_Report_%d.xlsx", runID))

	if err := g.writeWorkbook(reportPath, summary, overall); err != nil {
		return "", err
	}

	g.logger.Info("report generated",
		logging.Int64(logging.FieldRunID, runID),
		logging.String("path", reportPath),
		logging.Int("customers", len(summary)),
		logging.Int("tracker_rows", len(overall)),
	)
	return reportPath, nil
}

func (g *Generator) writeWorkbook(path string, summary []store.SummaryRow, overall []store.OverallRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", countSheet); err != nil {
		return fmt.Errorf("name count sheet: %w", err)
	}
	if _, err := f.NewSheet(overallSheet); err != nil {
		return fmt.Errorf("create overall sheet: %w", err)
	}

	if err := f.SetSheetRow(countSheet, "A1", &[]any{"Customer Name", "Include Count", "Exclude Count", "Total Count"}); err != nil {
		return fmt.Errorf("write count header: %w", err)
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(countSheet, cell, &[]any{row.CustomerName, row.Include, row.Exclude, row.Total}); err != nil {
			return fmt.Errorf("write count row %d: %w", i+2, err)
		}
	}

	header := make([]any, 0, len(g.cfg.Tracker.CustomerColumns)+2)
	header = append(header, g.cfg.Tracker.ProductColumn)
	for _, column := range g.cfg.Tracker.CustomerColumns {
		header = append(header, column)
	}
	header = append(header, g.cfg.Tracker.CommentColumn)
	if err := f.SetSheetRow(overallSheet, "A1", &header); err != nil {
		return fmt.Errorf("write overall header: %w", err)
	}

	for i, row := range overall {
		values := make([]any, 0, len(header))
		values = append(values, row.ProductName)
		for _, column := range g.cfg.Tracker.CustomerColumns {
			values = append(values, row.Values[column])
		}
		values = append(values, row.Comment)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(overallSheet, cell, &values); err != nil {
			return fmt.Errorf("write overall row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}
