package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"smartmes/internal/service/dashboard"
	"smartmes/internal/storage"
)

type stubDashboard struct {
	d   *dashboard.Dashboard
	err error
}

func (s stubDashboard) CompleteDashboard(context.Context) (*dashboard.Dashboard, error) {
	return s.d, s.err
}

type stubDowntime struct {
	reports []*storage.DowntimeReport
	calls   int
}

func (s *stubDowntime) Query(_ context.Context, _ storage.DowntimeFilter, pageNum, pageSize int) (*storage.PageResult[*storage.DowntimeReport], error) {
	s.calls++
	start := (pageNum - 1) * pageSize
	end := start + pageSize
	if start > len(s.reports) {
		start = len(s.reports)
	}
	if end > len(s.reports) {
		end = len(s.reports)
	}
	return &storage.PageResult[*storage.DowntimeReport]{
		Items:    s.reports[start:end],
		Total:    int64(len(s.reports)),
		PageNum:  pageNum,
		PageSize: pageSize,
	}, nil
}

func open(t *testing.T, b []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestDashboardWorkbook(t *testing.T) {
	start := time.Date(2026, 4, 1, 8, 0, 0, 0, time.Local)
	d := &dashboard.Dashboard{
		Overview: &dashboard.ProductionOverview{Date: "2026-04-01", TotalOrders: 3, PlanQtyTotal: 180, ActualQtyTotal: 70, CompletionRate: 38.89},
		Downtime: &dashboard.DowntimeStatistics{
			TodayReports: 1,
			TopFaultyEquipment: []dashboard.FaultyEquipment{
				{EquipmentID: "EQ-7", EquipmentName: "Press", FaultCount: 1, TotalMinutes: 45},
			},
		},
		Progress: []dashboard.ProgressItem{
			{OrderNo: "WO-001", ProductCode: "P-1", LineID: "L1", StatusName: "In Progress", PlanQty: 100, ActualQty: 20, CompletionRate: 20, StartTime: &start},
		},
		Equipment: &dashboard.EquipmentSummary{
			Items: []dashboard.EquipmentItem{{EquipmentID: "EQ-7", Name: "Press", StatusName: "Running"}},
		},
	}

	b, err := New(stubDashboard{d: d}, nil).DashboardWorkbook(context.Background())
	require.NoError(t, err)

	f := open(t, b)
	assert.Equal(t, []string{SheetOverview, SheetWorkOrders, SheetEquipment, SheetDowntime}, f.GetSheetList())

	rows, err := f.GetRows(SheetOverview)
	require.NoError(t, err)
	assert.Equal(t, []string{"Metric", "Value"}, rows[0])
	assert.Equal(t, []string{"Completion rate, %", "38.89"}, rows[8])

	rows, err = f.GetRows(SheetWorkOrders)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "WO-001", rows[1][0])
	assert.Equal(t, "2026-04-01 08:00", rows[1][7])

	rows, err = f.GetRows(SheetDowntime)
	require.NoError(t, err)
	assert.Equal(t, []string{"EQ-7", "Press", "1", "45"}, rows[1])
}

func TestDashboardWorkbookError(t *testing.T) {
	boom := errors.New("db gone")
	_, err := New(stubDashboard{err: boom}, nil).DashboardWorkbook(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestDowntimeWorkbookPages(t *testing.T) {
	src := &stubDowntime{}
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.Local)
	for i := 0; i < storage.MaxPageSize+3; i++ {
		src.reports = append(src.reports, &storage.DowntimeReport{
			ID:          int64(i + 1),
			EquipmentID: "EQ-7",
			Type:        storage.DowntimeEquipmentFailure,
			StartTime:   start,
			Status:      storage.DowntimePending,
		})
	}
	minutes, solution := 45, "replaced part"
	src.reports[0].DurationMinutes = &minutes
	src.reports[0].Solution = &solution

	b, err := New(nil, src).DowntimeWorkbook(context.Background(), storage.DowntimeFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)

	f := open(t, b)
	rows, err := f.GetRows(SheetDowntime)
	require.NoError(t, err)
	assert.Len(t, rows, storage.MaxPageSize+4)
	assert.Equal(t, "Equipment Failure", rows[1][3])
	assert.Equal(t, "45", rows[1][7])
	assert.Equal(t, "replaced part", rows[1][10])
}
