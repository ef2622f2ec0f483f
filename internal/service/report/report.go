// Package report renders dashboard and downtime data as xlsx workbooks.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"smartmes/internal/service/dashboard"
	"smartmes/internal/storage"
)

const (
	SheetOverview   = "Overview"
	SheetWorkOrders = "Work orders"
	SheetEquipment  = "Equipment"
	SheetDowntime   = "Downtime"

	timeLayout = "2006-01-02 15:04"
)

type DashboardSource interface {
	CompleteDashboard(ctx context.Context) (*dashboard.Dashboard, error)
}

type DowntimeSource interface {
	Query(ctx context.Context, f storage.DowntimeFilter, pageNum, pageSize int) (*storage.PageResult[*storage.DowntimeReport], error)
}

type Service struct {
	dashboard DashboardSource
	downtime  DowntimeSource
}

func New(dash DashboardSource, downtime DowntimeSource) *Service {
	return &Service{dashboard: dash, downtime: downtime}
}

// DashboardWorkbook exports today's dashboard, one sheet per view.
func (s *Service) DashboardWorkbook(ctx context.Context) ([]byte, error) {
	const op = "report.DashboardWorkbook"

	d, err := s.dashboard.CompleteDashboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	w, err := newWriter(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	o := d.Overview
	w.sheet(SheetOverview, []string{"Metric", "Value"})
	w.rows(SheetOverview, [][]any{
		{"Date", o.Date},
		{"Total orders", o.TotalOrders},
		{"Completed", o.CompletedOrders},
		{"In progress", o.InProgressOrders},
		{"Abnormal", o.AbnormalOrders},
		{"Planned quantity", o.PlanQtyTotal},
		{"Actual quantity", o.ActualQtyTotal},
		{"Completion rate, %", o.CompletionRate},
		{"Equipment running", o.RunningEquipment},
		{"Equipment idle", o.IdleEquipment},
		{"Equipment in fault", o.FaultEquipment},
		{"Downtime reports today", d.Downtime.TodayReports},
		{"Downtime minutes today", d.Downtime.TodayDurationMinutes},
	})

	w.sheet(SheetWorkOrders, []string{"Order No", "Product", "Line", "Status", "Plan", "Actual", "Completion, %", "Started", "Finished"})
	orders := make([][]any, 0, len(d.Progress))
	for _, p := range d.Progress {
		orders = append(orders, []any{
			p.OrderNo, p.ProductCode, p.LineID, p.StatusName,
			p.PlanQty, p.ActualQty, p.CompletionRate,
			formatTime(p.StartTime), formatTime(p.EndTime),
		})
	}
	w.rows(SheetWorkOrders, orders)

	w.sheet(SheetEquipment, []string{"Equipment", "Name", "Type", "Line", "Status", "Last maintenance", "Next maintenance"})
	equipment := make([][]any, 0, len(d.Equipment.Items))
	for _, e := range d.Equipment.Items {
		equipment = append(equipment, []any{
			e.EquipmentID, e.Name, e.Type, e.LineID, e.StatusName,
			formatTime(e.LastMaintenanceTime), formatTime(e.NextMaintenanceTime),
		})
	}
	w.rows(SheetEquipment, equipment)

	w.sheet(SheetDowntime, []string{"Equipment", "Name", "Incidents", "Minutes"})
	faulty := make([][]any, 0, len(d.Downtime.TopFaultyEquipment))
	for _, e := range d.Downtime.TopFaultyEquipment {
		faulty = append(faulty, []any{e.EquipmentID, e.EquipmentName, e.FaultCount, e.TotalMinutes})
	}
	w.rows(SheetDowntime, faulty)

	if w.err != nil {
		return nil, fmt.Errorf("%s: %w", op, w.err)
	}
	return w.bytes(SheetOverview)
}

// DowntimeWorkbook exports every report matching f, newest first.
func (s *Service) DowntimeWorkbook(ctx context.Context, filter storage.DowntimeFilter) ([]byte, error) {
	const op = "report.DowntimeWorkbook"

	var reports []*storage.DowntimeReport
	for page := 1; ; page++ {
		res, err := s.downtime.Query(ctx, filter, page, storage.MaxPageSize)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		reports = append(reports, res.Items...)
		if len(res.Items) == 0 || int64(len(reports)) >= res.Total {
			break
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	w, err := newWriter(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	w.sheet(SheetDowntime, []string{
		"Report", "Order", "Equipment", "Type", "Description", "Start", "End",
		"Minutes", "Reporter", "Responder", "Solution", "Status",
	})
	rows := make([][]any, 0, len(reports))
	for _, r := range reports {
		var minutes any
		if r.DurationMinutes != nil {
			minutes = *r.DurationMinutes
		}
		rows = append(rows, []any{
			r.ID, r.OrderID, r.EquipmentID, r.Type.DisplayName(), r.Description,
			r.StartTime.Format(timeLayout), formatTime(r.EndTime), minutes,
			r.ReporterID, deref(r.ResponderID), deref(r.Solution), string(r.Status),
		})
	}
	w.rows(SheetDowntime, rows)

	if w.err != nil {
		return nil, fmt.Errorf("%s: %w", op, w.err)
	}
	return w.bytes(SheetDowntime)
}

// writer keeps the first error so sheet building reads top to bottom.
type writer struct {
	f      *excelize.File
	header int
	used   bool
	err    error
}

func newWriter(f *excelize.File) (*writer, error) {
	style, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, err
	}
	return &writer{f: f, header: style}, nil
}

func (w *writer) sheet(name string, headers []string) {
	if w.err != nil {
		return
	}

	// The fresh file starts with Sheet1; reuse it for the first sheet.
	if !w.used {
		w.used = true
		w.err = w.f.SetSheetName("Sheet1", name)
	} else {
		_, w.err = w.f.NewSheet(name)
	}
	if w.err != nil {
		return
	}

	for i, h := range headers {
		if w.err = w.f.SetCellValue(name, cellName(i+1, 1), h); w.err != nil {
			return
		}
	}
	if w.err = w.f.SetCellStyle(name, "A1", cellName(len(headers), 1), w.header); w.err != nil {
		return
	}
	if w.err = w.f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); w.err != nil {
		return
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	w.err = w.f.SetColWidth(name, "A", lastCol, 16)
}

func (w *writer) rows(sheet string, rows [][]any) {
	for i, row := range rows {
		if w.err != nil {
			return
		}
		w.err = w.f.SetSheetRow(sheet, cellName(1, i+2), &row)
	}
}

func (w *writer) bytes(active string) ([]byte, error) {
	if idx, err := w.f.GetSheetIndex(active); err == nil && idx >= 0 {
		w.f.SetActiveSheet(idx)
	}

	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
