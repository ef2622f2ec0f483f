// Package dashboard derives shop-floor statistics from stored work orders,
// downtime reports and equipment. It never writes. "Today" is the local
// calendar day of the injected clock.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"smartmes/internal/clock"
	"smartmes/internal/storage"
)

const topFaulty = 5

type Store interface {
	FindWorkOrders(ctx context.Context, f storage.WorkOrderFilter, page *storage.Page) ([]*storage.WorkOrder, int64, error)
	AggregateDowntime(ctx context.Context, f storage.DowntimeFilter, top int) (*storage.DowntimeAggregate, error)
	ListEquipment(ctx context.Context, lineID string) ([]*storage.Equipment, error)
	CountEquipmentByStatus(ctx context.Context) (map[storage.EquipmentStatus]int64, error)
}

type Service struct {
	log   *slog.Logger
	store Store
	clock clock.Clock
}

func New(log *slog.Logger, store Store, clk clock.Clock) *Service {
	return &Service{
		log:   log.With(slog.String("component", "dashboard")),
		store: store,
		clock: clk,
	}
}

type ProductionOverview struct {
	Date             string  `json:"date"`
	TotalOrders      int64   `json:"total_orders"`
	CompletedOrders  int64   `json:"completed_orders"`
	InProgressOrders int64   `json:"in_progress_orders"`
	AbnormalOrders   int64   `json:"abnormal_orders"`
	PlanQtyTotal     int64   `json:"plan_qty_total"`
	ActualQtyTotal   int64   `json:"actual_qty_total"`
	CompletionRate   float64 `json:"completion_rate"`
	RunningEquipment int64   `json:"running_equipment"`
	IdleEquipment    int64   `json:"idle_equipment"`
	FaultEquipment   int64   `json:"fault_equipment"`
}

type FaultyEquipment struct {
	EquipmentID   string `json:"equipment_id"`
	EquipmentName string `json:"equipment_name"`
	FaultCount    int64  `json:"fault_count"`
	TotalMinutes  int64  `json:"total_duration_minutes"`
}

type DowntimeStatistics struct {
	Date                 string            `json:"date"`
	TodayReports         int64             `json:"today_reports"`
	TodayDurationMinutes int64             `json:"today_duration_minutes"`
	ByType               map[string]int64  `json:"type_distribution"`
	TopFaultyEquipment   []FaultyEquipment `json:"top_faulty_equipment"`
}

type ProgressItem struct {
	OrderNo        string                  `json:"order_no"`
	ProductCode    string                  `json:"product_code"`
	LineID         string                  `json:"line_id"`
	Status         storage.WorkOrderStatus `json:"status"`
	StatusName     string                  `json:"status_name"`
	PlanQty        int                     `json:"plan_qty"`
	ActualQty      int                     `json:"actual_qty"`
	CompletionRate float64                 `json:"completion_rate"`
	StartTime      *time.Time              `json:"start_time"`
	EndTime        *time.Time              `json:"end_time"`
}

type EquipmentItem struct {
	EquipmentID         string                  `json:"equipment_id"`
	Name                string                  `json:"equipment_name"`
	Type                string                  `json:"equipment_type"`
	LineID              string                  `json:"line_id"`
	Status              storage.EquipmentStatus `json:"status"`
	StatusName          string                  `json:"status_name"`
	LastMaintenanceTime *time.Time              `json:"last_maintenance_time"`
	NextMaintenanceTime *time.Time              `json:"next_maintenance_time"`
}

type EquipmentSummary struct {
	Items       []EquipmentItem `json:"items"`
	Running     int64           `json:"running"`
	Idle        int64           `json:"idle"`
	Maintenance int64           `json:"maintenance"`
	Fault       int64           `json:"fault"`
}

type Dashboard struct {
	Overview  *ProductionOverview `json:"production_overview"`
	Downtime  *DowntimeStatistics `json:"downtime_statistics"`
	Progress  []ProgressItem      `json:"work_order_progress"`
	Equipment *EquipmentSummary   `json:"equipment_status"`
}

func (s *Service) today() (time.Time, time.Time) {
	return clock.DayBounds(s.clock.Now())
}

func (s *Service) todaysOrders(ctx context.Context, op string) ([]*storage.WorkOrder, time.Time, error) {
	from, to := s.today()

	orders, _, err := s.store.FindWorkOrders(ctx, storage.WorkOrderFilter{CreatedFrom: &from, CreatedTo: &to}, nil)
	if err != nil {
		return nil, from, fmt.Errorf("%s: work orders: %w", op, err)
	}
	return orders, from, nil
}

func (s *Service) ProductionOverview(ctx context.Context) (*ProductionOverview, error) {
	const op = "dashboard.ProductionOverview"

	orders, day, err := s.todaysOrders(ctx, op)
	if err != nil {
		return nil, err
	}

	out := &ProductionOverview{Date: day.Format(time.DateOnly)}
	for _, wo := range orders {
		out.TotalOrders++
		switch wo.Status {
		case storage.WOStatusCompleted:
			out.CompletedOrders++
		case storage.WOStatusInProgress:
			out.InProgressOrders++
		case storage.WOStatusAbnormal:
			out.AbnormalOrders++
		}
		out.PlanQtyTotal += int64(wo.PlanQty)
		out.ActualQtyTotal += int64(wo.ActualQty)
	}
	out.CompletionRate = storage.CompletionRate(int(out.PlanQtyTotal), int(out.ActualQtyTotal))

	counts, err := s.store.CountEquipmentByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: equipment: %w", op, err)
	}
	out.RunningEquipment = counts[storage.EquipmentRunning]
	out.IdleEquipment = counts[storage.EquipmentIdle]
	out.FaultEquipment = counts[storage.EquipmentFault]

	return out, nil
}

// DowntimeStatistics covers reports whose incident started today.
func (s *Service) DowntimeStatistics(ctx context.Context) (*DowntimeStatistics, error) {
	const op = "dashboard.DowntimeStatistics"

	from, to := s.today()

	agg, err := s.store.AggregateDowntime(ctx, storage.DowntimeFilter{StartFrom: &from, StartTo: &to}, topFaulty)
	if err != nil {
		return nil, fmt.Errorf("%s: downtime: %w", op, err)
	}

	equipment, err := s.store.ListEquipment(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%s: equipment: %w", op, err)
	}
	names := make(map[string]string, len(equipment))
	for _, e := range equipment {
		names[e.EquipmentID] = e.Name
	}

	out := &DowntimeStatistics{
		Date:                 from.Format(time.DateOnly),
		TodayReports:         agg.Total,
		TodayDurationMinutes: agg.TotalMinutes,
		ByType:               make(map[string]int64, len(agg.ByType)),
		TopFaultyEquipment:   make([]FaultyEquipment, 0, len(agg.TopByIncidents)),
	}
	for t, n := range agg.ByType {
		out.ByType[t.DisplayName()] += n
	}
	for _, e := range agg.TopByIncidents {
		out.TopFaultyEquipment = append(out.TopFaultyEquipment, FaultyEquipment{
			EquipmentID:   e.EquipmentID,
			EquipmentName: names[e.EquipmentID],
			FaultCount:    e.Incidents,
			TotalMinutes:  e.TotalMinutes,
		})
	}

	return out, nil
}

func (s *Service) WorkOrderProgress(ctx context.Context) ([]ProgressItem, error) {
	const op = "dashboard.WorkOrderProgress"

	orders, _, err := s.todaysOrders(ctx, op)
	if err != nil {
		return nil, err
	}

	items := make([]ProgressItem, 0, len(orders))
	for _, wo := range orders {
		items = append(items, ProgressItem{
			OrderNo:        wo.OrderNo,
			ProductCode:    wo.ProductCode,
			LineID:         wo.LineID,
			Status:         wo.Status,
			StatusName:     wo.Status.DisplayName(),
			PlanQty:        wo.PlanQty,
			ActualQty:      wo.ActualQty,
			CompletionRate: wo.CompletionRate(),
			StartTime:      wo.StartTime,
			EndTime:        wo.EndTime,
		})
	}
	return items, nil
}

func (s *Service) EquipmentStatus(ctx context.Context) (*EquipmentSummary, error) {
	const op = "dashboard.EquipmentStatus"

	equipment, err := s.store.ListEquipment(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := &EquipmentSummary{Items: make([]EquipmentItem, 0, len(equipment))}
	for _, e := range equipment {
		out.Items = append(out.Items, EquipmentItem{
			EquipmentID:         e.EquipmentID,
			Name:                e.Name,
			Type:                e.Type,
			LineID:              e.LineID,
			Status:              e.Status,
			StatusName:          e.Status.DisplayName(),
			LastMaintenanceTime: e.LastMaintenanceTime,
			NextMaintenanceTime: e.NextMaintenanceTime,
		})

		switch e.Status {
		case storage.EquipmentRunning:
			out.Running++
		case storage.EquipmentIdle:
			out.Idle++
		case storage.EquipmentMaintenance:
			out.Maintenance++
		case storage.EquipmentFault:
			out.Fault++
		}
	}
	return out, nil
}

// CompleteDashboard runs the four views in parallel and fails with the
// first error any of them returns.
func (s *Service) CompleteDashboard(ctx context.Context) (*Dashboard, error) {
	const op = "dashboard.CompleteDashboard"

	var (
		overview  *ProductionOverview
		downtime  *DowntimeStatistics
		progress  []ProgressItem
		equipment *EquipmentSummary
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		overview, err = s.ProductionOverview(gctx)
		return err
	})
	g.Go(func() (err error) {
		downtime, err = s.DowntimeStatistics(gctx)
		return err
	})
	g.Go(func() (err error) {
		progress, err = s.WorkOrderProgress(gctx)
		return err
	})
	g.Go(func() (err error) {
		equipment, err = s.EquipmentStatus(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Error("dashboard assembly failed", slog.String("op", op), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Dashboard{
		Overview:  overview,
		Downtime:  downtime,
		Progress:  progress,
		Equipment: equipment,
	}, nil
}
