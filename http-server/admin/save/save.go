package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"smartmes/http-server/respond"
	"smartmes/internal/storage"
)

type BaseDataCreator interface {
	CreateEquipment(ctx context.Context, e storage.Equipment) (*storage.Equipment, error)
	CreateProduct(ctx context.Context, p storage.Product) (*storage.Product, error)
}

type EquipmentRequest struct {
	EquipmentID         string     `json:"equipment_id" validate:"required,max=64"`
	Name                string     `json:"equipment_name" validate:"required,max=128"`
	Type                string     `json:"equipment_type" validate:"max=64"`
	LineID              string     `json:"line_id" validate:"required,max=64"`
	Status              string     `json:"status" validate:"omitempty,oneof=RUNNING IDLE MAINTENANCE FAULT"`
	LastMaintenanceTime *time.Time `json:"last_maintenance_time"`
	NextMaintenanceTime *time.Time `json:"next_maintenance_time"`
	Location            string     `json:"location" validate:"max=128"`
	Remarks             string     `json:"remarks" validate:"max=500"`
}

func (req EquipmentRequest) Equipment() storage.Equipment {
	return storage.Equipment{
		EquipmentID:         req.EquipmentID,
		Name:                req.Name,
		Type:                req.Type,
		LineID:              req.LineID,
		Status:              storage.EquipmentStatus(req.Status),
		LastMaintenanceTime: req.LastMaintenanceTime,
		NextMaintenanceTime: req.NextMaintenanceTime,
		Location:            req.Location,
		Remarks:             req.Remarks,
	}
}

type ProductRequest struct {
	Code             string `json:"product_code" validate:"required,max=64"`
	Name             string `json:"product_name" validate:"required,max=128"`
	Specification    string `json:"specification" validate:"max=256"`
	Type             string `json:"product_type" validate:"max=64"`
	Unit             string `json:"unit" validate:"max=16"`
	StandardWorkTime int    `json:"standard_work_time" validate:"gte=0"`
	Status           string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	Remarks          string `json:"remarks" validate:"max=500"`
}

func (req ProductRequest) Product() storage.Product {
	return storage.Product{
		Code:             req.Code,
		Name:             req.Name,
		Specification:    req.Specification,
		Type:             req.Type,
		Unit:             req.Unit,
		StandardWorkTime: req.StandardWorkTime,
		Status:           storage.ProductStatus(req.Status),
		Remarks:          req.Remarks,
	}
}

func CreateEquipment(log *slog.Logger, creator BaseDataCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.CreateEquipment"
		log := respond.Logger(log, r, op)

		var req EquipmentRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		e, err := creator.CreateEquipment(ctx, req.Equipment())
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		log.Info("equipment created", slog.String("equipment_id", e.EquipmentID))

		respond.Created(w, r, e)
	}
}

func CreateProduct(log *slog.Logger, creator BaseDataCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.CreateProduct"
		log := respond.Logger(log, r, op)

		var req ProductRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		p, err := creator.CreateProduct(ctx, req.Product())
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		log.Info("product created", slog.String("product_code", p.Code))

		respond.Created(w, r, p)
	}
}
