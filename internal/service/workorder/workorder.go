// Package workorder owns the work-order lifecycle:
//
//	PENDING -> IN_PROGRESS -> COMPLETED | ABNORMAL
//	ABNORMAL -> COMPLETED
//	PENDING | IN_PROGRESS | ABNORMAL -> CANCELLED
//	COMPLETED | CANCELLED -> CLOSED (administrative)
//
// Every operation re-reads the order, validates, mutates and writes it back
// with a version check. A rejected transition never touches the store.
package workorder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"smartmes/internal/apperr"
	"smartmes/internal/clock"
	"smartmes/internal/service/audit"
	"smartmes/internal/service/events"
	"smartmes/internal/storage"
)

const entity = "work order"

type Store interface {
	GetWorkOrder(ctx context.Context, orderNo string) (*storage.WorkOrder, error)
	WorkOrderExists(ctx context.Context, orderNo string) (bool, error)
	InsertWorkOrder(ctx context.Context, wo *storage.WorkOrder) error
	UpdateWorkOrder(ctx context.Context, wo *storage.WorkOrder) error
	DeleteWorkOrder(ctx context.Context, orderNo string) error
	FindWorkOrders(ctx context.Context, f storage.WorkOrderFilter, page *storage.Page) ([]*storage.WorkOrder, int64, error)
	CountWorkOrders(ctx context.Context, f storage.WorkOrderFilter) (int64, error)
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

type Service struct {
	log    *slog.Logger
	store  Store
	clock  clock.Clock
	audit  Auditor
	events events.Publisher
}

func New(log *slog.Logger, store Store, clk clock.Clock, auditor Auditor, pub events.Publisher) *Service {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		log:    log.With(slog.String("component", "workorder")),
		store:  store,
		clock:  clk,
		audit:  auditor,
		events: pub,
	}
}

func (s *Service) Create(ctx context.Context, wo storage.WorkOrder) (*storage.WorkOrder, error) {
	const op = "workorder.Create"

	wo.OrderNo = strings.TrimSpace(wo.OrderNo)
	if wo.OrderNo == "" {
		return nil, apperr.InvalidArgument(op, "order number is required")
	}
	if wo.PlanQty <= 0 {
		return nil, apperr.InvalidArgument(op, "plan quantity must be positive")
	}
	if wo.ActualQty < 0 {
		return nil, apperr.InvalidArgument(op, "actual quantity must not be negative")
	}
	if wo.Status == "" {
		wo.Status = storage.WOStatusPending
	} else if !wo.Status.Valid() {
		return nil, apperr.InvalidArgument(op, fmt.Sprintf("unknown status %q", wo.Status))
	}

	exists, err := s.store.WorkOrderExists(ctx, wo.OrderNo)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, apperr.DuplicateKey(op, entity, wo.OrderNo)
	}

	now := s.clock.Now()
	wo.CreatedAt = now
	wo.UpdatedAt = now

	if err := s.store.InsertWorkOrder(ctx, &wo); err != nil {
		return nil, apperr.FromStore(op, entity, wo.OrderNo, err)
	}

	s.log.Info("work order created", slog.String("order_no", wo.OrderNo), slog.Int("plan_qty", wo.PlanQty))
	s.emit(ctx, &wo, "create", "")

	return &wo, nil
}

func (s *Service) Get(ctx context.Context, orderNo string) (*storage.WorkOrder, error) {
	const op = "workorder.Get"

	wo, err := s.store.GetWorkOrder(ctx, orderNo)
	if err != nil {
		return nil, apperr.FromStore(op, entity, orderNo, err)
	}
	return wo, nil
}

func (s *Service) Exists(ctx context.Context, orderNo string) (bool, error) {
	const op = "workorder.Exists"

	ok, err := s.store.WorkOrderExists(ctx, orderNo)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

func (s *Service) List(ctx context.Context, page storage.Page) (*storage.PageResult[*storage.WorkOrder], error) {
	return s.search(ctx, "workorder.List", storage.WorkOrderFilter{}, page)
}

func (s *Service) Search(ctx context.Context, f storage.WorkOrderFilter, page storage.Page) (*storage.PageResult[*storage.WorkOrder], error) {
	const op = "workorder.Search"

	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.InvalidArgument(op, fmt.Sprintf("unknown status %q", f.Status))
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedTo.Before(*f.CreatedFrom) {
		return nil, apperr.InvalidArgument(op, "created_to is before created_from")
	}
	return s.search(ctx, op, f, page)
}

func (s *Service) search(ctx context.Context, op string, f storage.WorkOrderFilter, page storage.Page) (*storage.PageResult[*storage.WorkOrder], error) {
	page = storage.NewPage(page.Num, page.Size)

	items, total, err := s.store.FindWorkOrders(ctx, f, &page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if items == nil {
		items = []*storage.WorkOrder{}
	}

	return &storage.PageResult[*storage.WorkOrder]{
		Items:    items,
		Total:    total,
		PageNum:  page.Num,
		PageSize: page.Size,
	}, nil
}

func (s *Service) CountByStatus(ctx context.Context, status storage.WorkOrderStatus) (int64, error) {
	const op = "workorder.CountByStatus"

	if !status.Valid() {
		return 0, apperr.InvalidArgument(op, fmt.Sprintf("unknown status %q", status))
	}

	n, err := s.store.CountWorkOrders(ctx, storage.WorkOrderFilter{Status: status})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// InProgressByLine lists every order currently running on a production line.
func (s *Service) InProgressByLine(ctx context.Context, lineID string) ([]*storage.WorkOrder, error) {
	const op = "workorder.InProgressByLine"

	items, _, err := s.store.FindWorkOrders(ctx, storage.WorkOrderFilter{
		Status: storage.WOStatusInProgress,
		LineID: lineID,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if items == nil {
		items = []*storage.WorkOrder{}
	}
	return items, nil
}

func (s *Service) Start(ctx context.Context, orderNo string) (*storage.WorkOrder, error) {
	return s.transition(ctx, "workorder.Start", orderNo, "start",
		statusIn(storage.WOStatusPending),
		func(wo *storage.WorkOrder) error {
			now := s.clock.Now()
			wo.Status = storage.WOStatusInProgress
			wo.StartTime = &now
			return nil
		})
}

// UpdateProgress overwrites the produced quantity. It is not capped by the
// planned quantity.
func (s *Service) UpdateProgress(ctx context.Context, orderNo string, actualQty int) (*storage.WorkOrder, error) {
	const op = "workorder.UpdateProgress"

	if actualQty < 0 {
		return nil, apperr.InvalidArgument(op, "actual quantity must not be negative")
	}

	return s.transition(ctx, op, orderNo, "update progress",
		statusIn(storage.WOStatusInProgress),
		func(wo *storage.WorkOrder) error {
			wo.ActualQty = actualQty
			return nil
		})
}

// Complete finishes a running or abnormal order. A nil actualQty keeps the
// last reported quantity.
func (s *Service) Complete(ctx context.Context, orderNo string, actualQty *int) (*storage.WorkOrder, error) {
	const op = "workorder.Complete"

	if actualQty != nil && *actualQty < 0 {
		return nil, apperr.InvalidArgument(op, "actual quantity must not be negative")
	}

	return s.transition(ctx, op, orderNo, "complete",
		statusIn(storage.WOStatusInProgress, storage.WOStatusAbnormal),
		func(wo *storage.WorkOrder) error {
			now := s.clock.Now()
			wo.Status = storage.WOStatusCompleted
			wo.EndTime = &now
			if actualQty != nil {
				wo.ActualQty = *actualQty
			}
			return nil
		})
}

func (s *Service) MarkAbnormal(ctx context.Context, orderNo string) (*storage.WorkOrder, error) {
	return s.transition(ctx, "workorder.MarkAbnormal", orderNo, "mark abnormal",
		statusIn(storage.WOStatusInProgress),
		func(wo *storage.WorkOrder) error {
			wo.Status = storage.WOStatusAbnormal
			return nil
		})
}

func (s *Service) Cancel(ctx context.Context, orderNo string) (*storage.WorkOrder, error) {
	return s.transition(ctx, "workorder.Cancel", orderNo, "cancel",
		statusNotIn(storage.WOStatusCompleted, storage.WOStatusCancelled, storage.WOStatusClosed),
		func(wo *storage.WorkOrder) error {
			wo.Status = storage.WOStatusCancelled
			return nil
		})
}

// Close archives a finished order. Only administrators reach it.
func (s *Service) Close(ctx context.Context, orderNo string) (*storage.WorkOrder, error) {
	return s.transition(ctx, "workorder.Close", orderNo, "close",
		statusIn(storage.WOStatusCompleted, storage.WOStatusCancelled),
		func(wo *storage.WorkOrder) error {
			wo.Status = storage.WOStatusClosed
			return nil
		})
}

func (s *Service) Update(ctx context.Context, orderNo string, p Patch) (*storage.WorkOrder, error) {
	const op = "workorder.Update"

	if p.empty() {
		return nil, apperr.InvalidArgument(op, "nothing to update")
	}
	if qty, ok := p.PlanQty.Get(); ok && qty <= 0 {
		return nil, apperr.InvalidArgument(op, "plan quantity must be positive")
	}

	return s.transition(ctx, op, orderNo, "update",
		func(storage.WorkOrderStatus) bool { return true },
		func(wo *storage.WorkOrder) error {
			assign(&wo.ProductCode, p.ProductCode)
			assign(&wo.LineID, p.LineID)
			assign(&wo.BatchNo, p.BatchNo)
			assign(&wo.PlanQty, p.PlanQty)
			assign(&wo.EquipmentID, p.EquipmentID)
			assign(&wo.OperatorID, p.OperatorID)
			assign(&wo.Remarks, p.Remarks)
			assign(&wo.StartTime, p.StartTime)
			assign(&wo.EndTime, p.EndTime)

			if wo.StartTime != nil && wo.EndTime != nil && wo.EndTime.Before(*wo.StartTime) {
				return apperr.InvalidArgument(op, "end time is before start time")
			}
			return nil
		})
}

func (s *Service) Delete(ctx context.Context, orderNo string) error {
	const op = "workorder.Delete"

	wo, err := s.store.GetWorkOrder(ctx, orderNo)
	if err != nil {
		return apperr.FromStore(op, entity, orderNo, err)
	}

	switch wo.Status {
	case storage.WOStatusInProgress, storage.WOStatusCompleted:
		return apperr.InvalidState(op, fmt.Sprintf("work order %q cannot be deleted in status %s", orderNo, wo.Status))
	}

	if err := s.store.DeleteWorkOrder(ctx, orderNo); err != nil {
		return apperr.FromStore(op, entity, orderNo, err)
	}

	s.log.Info("work order deleted", slog.String("order_no", orderNo))
	s.audit.Record(ctx, audit.Entry{
		Operation: "delete",
		Module:    audit.ModuleWorkOrder,
		EntityID:  orderNo,
		Details:   fmt.Sprintf("status %s", wo.Status),
	})

	return nil
}

// transition loads the order, checks allowed against its current status,
// applies mutate and writes it back under the loaded version.
func (s *Service) transition(
	ctx context.Context,
	op, orderNo, operation string,
	allowed func(storage.WorkOrderStatus) bool,
	mutate func(*storage.WorkOrder) error,
) (*storage.WorkOrder, error) {
	wo, err := s.store.GetWorkOrder(ctx, orderNo)
	if err != nil {
		return nil, apperr.FromStore(op, entity, orderNo, err)
	}

	from := wo.Status
	if !allowed(from) {
		return nil, apperr.InvalidTransition(op, string(from), operation)
	}

	if err := mutate(wo); err != nil {
		return nil, err
	}
	wo.UpdatedAt = s.clock.Now()

	if err := s.store.UpdateWorkOrder(ctx, wo); err != nil {
		return nil, apperr.FromStore(op, entity, orderNo, err)
	}

	s.log.Info("work order updated",
		slog.String("order_no", orderNo),
		slog.String("operation", operation),
		slog.String("from", string(from)),
		slog.String("to", string(wo.Status)),
	)
	s.emit(ctx, wo, operation, from)

	return wo, nil
}

func (s *Service) emit(ctx context.Context, wo *storage.WorkOrder, operation string, from storage.WorkOrderStatus) {
	details := fmt.Sprintf("status %s", wo.Status)
	if from != "" && from != wo.Status {
		details = fmt.Sprintf("status %s -> %s", from, wo.Status)
	}
	s.audit.Record(ctx, audit.Entry{
		Operation: operation,
		Module:    audit.ModuleWorkOrder,
		EntityID:  wo.OrderNo,
		Details:   details,
	})

	err := s.events.Publish(ctx, events.Event{
		Entity:    events.EntityWorkOrder,
		ID:        wo.OrderNo,
		Operation: operation,
		From:      string(from),
		To:        string(wo.Status),
		At:        wo.UpdatedAt,
	})
	if err != nil {
		s.log.Warn("failed to publish work order event", slog.String("order_no", wo.OrderNo), slog.String("error", err.Error()))
	}
}

func statusIn(set ...storage.WorkOrderStatus) func(storage.WorkOrderStatus) bool {
	return func(s storage.WorkOrderStatus) bool {
		for _, v := range set {
			if s == v {
				return true
			}
		}
		return false
	}
}

func statusNotIn(set ...storage.WorkOrderStatus) func(storage.WorkOrderStatus) bool {
	in := statusIn(set...)
	return func(s storage.WorkOrderStatus) bool { return !in(s) }
}
