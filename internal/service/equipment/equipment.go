// Package equipment manages equipment and product master data. Equipment
// status is assigned directly by operators; there is no state machine.
package equipment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"smartmes/internal/apperr"
	"smartmes/internal/clock"
	"smartmes/internal/service/audit"
	"smartmes/internal/storage"
)

type Store interface {
	GetEquipment(ctx context.Context, id string) (*storage.Equipment, error)
	InsertEquipment(ctx context.Context, e *storage.Equipment) error
	UpdateEquipment(ctx context.Context, e *storage.Equipment) error
	DeleteEquipment(ctx context.Context, id string) error
	ListEquipment(ctx context.Context, lineID string) ([]*storage.Equipment, error)

	GetProduct(ctx context.Context, code string) (*storage.Product, error)
	InsertProduct(ctx context.Context, p *storage.Product) error
	UpdateProduct(ctx context.Context, p *storage.Product) error
	DeleteProduct(ctx context.Context, code string) error
	ListProducts(ctx context.Context, nameLike string) ([]*storage.Product, error)
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

type Service struct {
	log   *slog.Logger
	store Store
	clock clock.Clock
	audit Auditor
}

func New(log *slog.Logger, store Store, clk clock.Clock, auditor Auditor) *Service {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &Service{
		log:   log.With(slog.String("component", "equipment")),
		store: store,
		clock: clk,
		audit: auditor,
	}
}

func (s *Service) CreateEquipment(ctx context.Context, e storage.Equipment) (*storage.Equipment, error) {
	const op = "equipment.CreateEquipment"

	e.EquipmentID = strings.TrimSpace(e.EquipmentID)
	if e.EquipmentID == "" {
		return nil, apperr.InvalidArgument(op, "equipment id is required")
	}
	if e.Status == "" {
		e.Status = storage.EquipmentIdle
	} else if !e.Status.Valid() {
		return nil, apperr.InvalidArgument(op, fmt.Sprintf("unknown equipment status %q", e.Status))
	}

	now := s.clock.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := s.store.InsertEquipment(ctx, &e); err != nil {
		return nil, apperr.FromStore(op, "equipment", e.EquipmentID, err)
	}

	s.record(ctx, audit.ModuleEquipment, "create", e.EquipmentID, "")
	return &e, nil
}

// UpdateEquipment replaces the descriptive fields. Status is left alone;
// use SetStatus for that.
func (s *Service) UpdateEquipment(ctx context.Context, e storage.Equipment) (*storage.Equipment, error) {
	const op = "equipment.UpdateEquipment"

	cur, err := s.store.GetEquipment(ctx, e.EquipmentID)
	if err != nil {
		return nil, apperr.FromStore(op, "equipment", e.EquipmentID, err)
	}

	cur.Name = e.Name
	cur.Type = e.Type
	cur.LineID = e.LineID
	cur.LastMaintenanceTime = e.LastMaintenanceTime
	cur.NextMaintenanceTime = e.NextMaintenanceTime
	cur.Location = e.Location
	cur.Remarks = e.Remarks
	cur.UpdatedAt = s.clock.Now()

	if err := s.store.UpdateEquipment(ctx, cur); err != nil {
		return nil, apperr.FromStore(op, "equipment", e.EquipmentID, err)
	}

	s.record(ctx, audit.ModuleEquipment, "update", cur.EquipmentID, "")
	return cur, nil
}

func (s *Service) SetStatus(ctx context.Context, id string, status storage.EquipmentStatus) (*storage.Equipment, error) {
	const op = "equipment.SetStatus"

	if !status.Valid() {
		return nil, apperr.InvalidArgument(op, fmt.Sprintf("unknown equipment status %q", status))
	}

	cur, err := s.store.GetEquipment(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(op, "equipment", id, err)
	}

	from := cur.Status
	cur.Status = status
	cur.UpdatedAt = s.clock.Now()

	if err := s.store.UpdateEquipment(ctx, cur); err != nil {
		return nil, apperr.FromStore(op, "equipment", id, err)
	}

	s.log.Info("equipment status changed", slog.String("equipment_id", id), slog.String("from", string(from)), slog.String("to", string(status)))
	s.record(ctx, audit.ModuleEquipment, "set status", id, fmt.Sprintf("status %s -> %s", from, status))
	return cur, nil
}

func (s *Service) DeleteEquipment(ctx context.Context, id string) error {
	const op = "equipment.DeleteEquipment"

	if err := s.store.DeleteEquipment(ctx, id); err != nil {
		return apperr.FromStore(op, "equipment", id, err)
	}

	s.record(ctx, audit.ModuleEquipment, "delete", id, "")
	return nil
}

func (s *Service) GetEquipment(ctx context.Context, id string) (*storage.Equipment, error) {
	e, err := s.store.GetEquipment(ctx, id)
	if err != nil {
		return nil, apperr.FromStore("equipment.GetEquipment", "equipment", id, err)
	}
	return e, nil
}

func (s *Service) ListEquipment(ctx context.Context) ([]*storage.Equipment, error) {
	return s.ListEquipmentByLine(ctx, "")
}

func (s *Service) ListEquipmentByLine(ctx context.Context, lineID string) ([]*storage.Equipment, error) {
	const op = "equipment.ListEquipmentByLine"

	list, err := s.store.ListEquipment(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if list == nil {
		list = []*storage.Equipment{}
	}
	return list, nil
}

func (s *Service) CreateProduct(ctx context.Context, p storage.Product) (*storage.Product, error) {
	const op = "equipment.CreateProduct"

	p.Code = strings.TrimSpace(p.Code)
	if p.Code == "" {
		return nil, apperr.InvalidArgument(op, "product code is required")
	}
	if err := checkProduct(op, &p); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.store.InsertProduct(ctx, &p); err != nil {
		return nil, apperr.FromStore(op, "product", p.Code, err)
	}

	s.record(ctx, audit.ModuleProduct, "create", p.Code, "")
	return &p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, p storage.Product) (*storage.Product, error) {
	const op = "equipment.UpdateProduct"

	if err := checkProduct(op, &p); err != nil {
		return nil, err
	}

	cur, err := s.store.GetProduct(ctx, p.Code)
	if err != nil {
		return nil, apperr.FromStore(op, "product", p.Code, err)
	}

	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = s.clock.Now()

	if err := s.store.UpdateProduct(ctx, &p); err != nil {
		return nil, apperr.FromStore(op, "product", p.Code, err)
	}

	s.record(ctx, audit.ModuleProduct, "update", p.Code, "")
	return &p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, code string) error {
	const op = "equipment.DeleteProduct"

	if err := s.store.DeleteProduct(ctx, code); err != nil {
		return apperr.FromStore(op, "product", code, err)
	}

	s.record(ctx, audit.ModuleProduct, "delete", code, "")
	return nil
}

func (s *Service) GetProduct(ctx context.Context, code string) (*storage.Product, error) {
	p, err := s.store.GetProduct(ctx, code)
	if err != nil {
		return nil, apperr.FromStore("equipment.GetProduct", "product", code, err)
	}
	return p, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]*storage.Product, error) {
	return s.SearchProducts(ctx, "")
}

// SearchProducts matches name substrings, case-insensitively in memory and
// by the column collation in MySQL.
func (s *Service) SearchProducts(ctx context.Context, name string) ([]*storage.Product, error) {
	const op = "equipment.SearchProducts"

	list, err := s.store.ListProducts(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if list == nil {
		list = []*storage.Product{}
	}
	return list, nil
}

func checkProduct(op string, p *storage.Product) error {
	if p.StandardWorkTime < 0 {
		return apperr.InvalidArgument(op, "standard work time must not be negative")
	}
	switch p.Status {
	case "":
		p.Status = storage.ProductActive
	case storage.ProductActive, storage.ProductInactive:
	default:
		return apperr.InvalidArgument(op, fmt.Sprintf("unknown product status %q", p.Status))
	}
	return nil
}

func (s *Service) record(ctx context.Context, module, operation, id, details string) {
	s.audit.Record(ctx, audit.Entry{
		Operation: operation,
		Module:    module,
		EntityID:  id,
		Details:   details,
	})
}
