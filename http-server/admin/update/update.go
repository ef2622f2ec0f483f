package update

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"smartmes/http-server/respond"
	"smartmes/internal/storage"
)

type BaseDataUpdater interface {
	UpdateEquipment(ctx context.Context, e storage.Equipment) (*storage.Equipment, error)
	SetStatus(ctx context.Context, id string, status storage.EquipmentStatus) (*storage.Equipment, error)
	UpdateProduct(ctx context.Context, p storage.Product) (*storage.Product, error)
}

type EquipmentRequest struct {
	Name                string     `json:"equipment_name" validate:"required,max=128"`
	Type                string     `json:"equipment_type" validate:"max=64"`
	LineID              string     `json:"line_id" validate:"required,max=64"`
	LastMaintenanceTime *time.Time `json:"last_maintenance_time"`
	NextMaintenanceTime *time.Time `json:"next_maintenance_time"`
	Location            string     `json:"location" validate:"max=128"`
	Remarks             string     `json:"remarks" validate:"max=500"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=RUNNING IDLE MAINTENANCE FAULT"`
}

type ProductRequest struct {
	Name             string `json:"product_name" validate:"required,max=128"`
	Specification    string `json:"specification" validate:"max=256"`
	Type             string `json:"product_type" validate:"max=64"`
	Unit             string `json:"unit" validate:"max=16"`
	StandardWorkTime int    `json:"standard_work_time" validate:"gte=0"`
	Status           string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	Remarks          string `json:"remarks" validate:"max=500"`
}

func UpdateEquipment(log *slog.Logger, updater BaseDataUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.UpdateEquipment"
		log := respond.Logger(log, r, op)

		var req EquipmentRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		e, err := updater.UpdateEquipment(ctx, storage.Equipment{
			EquipmentID:         chi.URLParam(r, "id"),
			Name:                req.Name,
			Type:                req.Type,
			LineID:              req.LineID,
			LastMaintenanceTime: req.LastMaintenanceTime,
			NextMaintenanceTime: req.NextMaintenanceTime,
			Location:            req.Location,
			Remarks:             req.Remarks,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, e)
	}
}

func SetEquipmentStatus(log *slog.Logger, updater BaseDataUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.SetEquipmentStatus"
		log := respond.Logger(log, r, op)

		var req StatusRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		e, err := updater.SetStatus(ctx, chi.URLParam(r, "id"), storage.EquipmentStatus(req.Status))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, e)
	}
}

func UpdateProduct(log *slog.Logger, updater BaseDataUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.UpdateProduct"
		log := respond.Logger(log, r, op)

		var req ProductRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		p, err := updater.UpdateProduct(ctx, storage.Product{
			Code:             chi.URLParam(r, "code"),
			Name:             req.Name,
			Specification:    req.Specification,
			Type:             req.Type,
			Unit:             req.Unit,
			StandardWorkTime: req.StandardWorkTime,
			Status:           storage.ProductStatus(req.Status),
			Remarks:          req.Remarks,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, p)
	}
}
