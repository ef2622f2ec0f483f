// Package downtime runs the incident workflow PENDING -> PROCESSING -> RESOLVED.
// Status never moves backwards. Resolve only refuses reports that are
// already resolved, so a PENDING report may be resolved without a response.
package downtime

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"smartmes/internal/apperr"
	"smartmes/internal/clock"
	"smartmes/internal/service/audit"
	"smartmes/internal/service/events"
	"smartmes/internal/storage"
)

const (
	entity = "downtime report"
	topN   = 5
)

type Store interface {
	InsertDowntime(ctx context.Context, r *storage.DowntimeReport) error
	GetDowntime(ctx context.Context, id int64) (*storage.DowntimeReport, error)
	UpdateDowntime(ctx context.Context, r *storage.DowntimeReport) error
	DeleteDowntime(ctx context.Context, id int64) error
	FindDowntime(ctx context.Context, f storage.DowntimeFilter, page *storage.Page) ([]*storage.DowntimeReport, int64, error)
	AggregateDowntime(ctx context.Context, f storage.DowntimeFilter, top int) (*storage.DowntimeAggregate, error)
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
		log:    log.With(slog.String("component", "downtime")),
		store:  store,
		clock:  clk,
		audit:  auditor,
		events: pub,
	}
}

type Statistics struct {
	TotalReports         int64                            `json:"total_reports"`
	TotalDurationMinutes int64                            `json:"total_duration_minutes"`
	ByStatus             map[storage.DowntimeStatus]int64 `json:"status_counts"`
	ByType               map[storage.DowntimeType]int64   `json:"type_counts"`
	TopByIncidents       []storage.EquipmentDowntime      `json:"top_equipment_by_incidents"`
	TopByDuration        []storage.EquipmentDowntime      `json:"top_equipment_by_duration"`
}

// Report files a new incident. Presence of required fields is checked by
// the caller; Report only rejects values that cannot be stored.
func (s *Service) Report(ctx context.Context, r storage.DowntimeReport) (*storage.DowntimeReport, error) {
	const op = "downtime.Report"

	if !r.Type.Valid() {
		return nil, apperr.InvalidArgument(op, fmt.Sprintf("unknown downtime type %q", r.Type))
	}
	if r.StartTime.IsZero() {
		return nil, apperr.InvalidArgument(op, "start time is required")
	}

	r.DurationMinutes = nil
	if r.EndTime != nil {
		if r.EndTime.Before(r.StartTime) {
			return nil, apperr.InvalidArgument(op, "end time is before start time")
		}
		d := storage.DurationMinutes(r.StartTime, *r.EndTime)
		r.DurationMinutes = &d
	}

	now := s.clock.Now()
	r.ID = 0
	r.Status = storage.DowntimePending
	r.ResponderID = nil
	r.ResponseNotes = nil
	r.Solution = nil
	r.CreatedAt = now
	r.UpdatedAt = now

	if err := s.store.InsertDowntime(ctx, &r); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("downtime reported",
		slog.Int64("report_id", r.ID),
		slog.String("equipment_id", r.EquipmentID),
		slog.String("type", string(r.Type)),
	)
	s.emit(ctx, &r, "report", "")

	return &r, nil
}

func (s *Service) Respond(ctx context.Context, id int64, responderID, notes string) (*storage.DowntimeReport, error) {
	const op = "downtime.Respond"

	responderID = strings.TrimSpace(responderID)
	if responderID == "" {
		return nil, apperr.InvalidArgument(op, "responder id is required")
	}

	r, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}

	from := r.Status
	if from != storage.DowntimePending {
		return nil, apperr.InvalidTransition(op, string(from), "respond")
	}

	r.ResponderID = &responderID
	if notes != "" {
		r.ResponseNotes = &notes
	}
	r.Status = storage.DowntimeProcessing

	if err := s.save(ctx, op, r); err != nil {
		return nil, err
	}
	s.emit(ctx, r, "respond", from)

	return r, nil
}

func (s *Service) Resolve(ctx context.Context, id int64, endTime time.Time, solution string) (*storage.DowntimeReport, error) {
	const op = "downtime.Resolve"

	r, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}

	from := r.Status
	if from == storage.DowntimeResolved {
		return nil, apperr.InvalidState(op, fmt.Sprintf("report %d is already resolved", id))
	}
	if endTime.Before(r.StartTime) {
		return nil, apperr.InvalidArgument(op, "end time is before start time")
	}

	d := storage.DurationMinutes(r.StartTime, endTime)
	r.EndTime = &endTime
	r.DurationMinutes = &d
	r.Solution = &solution
	r.Status = storage.DowntimeResolved

	if err := s.save(ctx, op, r); err != nil {
		return nil, err
	}
	s.emit(ctx, r, "resolve", from)

	return r, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*storage.DowntimeReport, error) {
	return s.load(ctx, "downtime.Get", id)
}

// Query returns one 1-based page of reports, newest first.
func (s *Service) Query(ctx context.Context, f storage.DowntimeFilter, pageNum, pageSize int) (*storage.PageResult[*storage.DowntimeReport], error) {
	const op = "downtime.Query"

	if f.Type != "" && !f.Type.Valid() {
		return nil, apperr.InvalidArgument(op, fmt.Sprintf("unknown downtime type %q", f.Type))
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.InvalidArgument(op, fmt.Sprintf("unknown status %q", f.Status))
	}

	page := storage.NewPage(pageNum, pageSize)

	items, total, err := s.store.FindDowntime(ctx, f, &page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if items == nil {
		items = []*storage.DowntimeReport{}
	}

	return &storage.PageResult[*storage.DowntimeReport]{
		Items:    items,
		Total:    total,
		PageNum:  page.Num,
		PageSize: page.Size,
	}, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "downtime.Delete"

	if err := s.store.DeleteDowntime(ctx, id); err != nil {
		return apperr.FromStore(op, entity, strconv.FormatInt(id, 10), err)
	}

	s.log.Info("downtime report deleted", slog.Int64("report_id", id))
	s.audit.Record(ctx, audit.Entry{
		Operation: "delete",
		Module:    audit.ModuleDowntime,
		EntityID:  strconv.FormatInt(id, 10),
	})

	return nil
}

// Statistics folds every report on record.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	const op = "downtime.Statistics"

	agg, err := s.store.AggregateDowntime(ctx, storage.DowntimeFilter{}, topN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats := &Statistics{
		TotalReports:         agg.Total,
		TotalDurationMinutes: agg.TotalMinutes,
		ByStatus:             make(map[storage.DowntimeStatus]int64, 3),
		ByType:               make(map[storage.DowntimeType]int64, 6),
		TopByIncidents:       orEmpty(agg.TopByIncidents),
		TopByDuration:        orEmpty(agg.TopByDuration),
	}
	for _, st := range []storage.DowntimeStatus{storage.DowntimePending, storage.DowntimeProcessing, storage.DowntimeResolved} {
		stats.ByStatus[st] = agg.ByStatus[st]
	}
	for t, n := range agg.ByType {
		stats.ByType[t] = n
	}

	return stats, nil
}

func (s *Service) load(ctx context.Context, op string, id int64) (*storage.DowntimeReport, error) {
	r, err := s.store.GetDowntime(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(op, entity, strconv.FormatInt(id, 10), err)
	}
	return r, nil
}

func (s *Service) save(ctx context.Context, op string, r *storage.DowntimeReport) error {
	r.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateDowntime(ctx, r); err != nil {
		return apperr.FromStore(op, entity, strconv.FormatInt(r.ID, 10), err)
	}
	return nil
}

func (s *Service) emit(ctx context.Context, r *storage.DowntimeReport, operation string, from storage.DowntimeStatus) {
	id := strconv.FormatInt(r.ID, 10)

	s.audit.Record(ctx, audit.Entry{
		Operation: operation,
		Module:    audit.ModuleDowntime,
		EntityID:  id,
		Details:   fmt.Sprintf("equipment %s, status %s", r.EquipmentID, r.Status),
	})

	err := s.events.Publish(ctx, events.Event{
		Entity:    events.EntityDowntime,
		ID:        id,
		Operation: operation,
		From:      string(from),
		To:        string(r.Status),
		At:        r.UpdatedAt,
	})
	if err != nil {
		s.log.Warn("failed to publish downtime event", slog.Int64("report_id", r.ID), slog.String("error", err.Error()))
	}
}

func orEmpty(list []storage.EquipmentDowntime) []storage.EquipmentDowntime {
	if list == nil {
		return []storage.EquipmentDowntime{}
	}
	return list
}
