// Package transition exposes the work-order state changes, one route each.
package transition

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"smartmes/http-server/respond"
	"smartmes/internal/storage"
)

type WorkOrderLifecycle interface {
	Start(ctx context.Context, orderNo string) (*storage.WorkOrder, error)
	UpdateProgress(ctx context.Context, orderNo string, actualQty int) (*storage.WorkOrder, error)
	Complete(ctx context.Context, orderNo string, actualQty *int) (*storage.WorkOrder, error)
	MarkAbnormal(ctx context.Context, orderNo string) (*storage.WorkOrder, error)
	Cancel(ctx context.Context, orderNo string) (*storage.WorkOrder, error)
	Close(ctx context.Context, orderNo string) (*storage.WorkOrder, error)
}

type ProgressRequest struct {
	ActualQty *int `json:"actual_qty" validate:"required,gte=0"`
}

type CompleteRequest struct {
	ActualQty *int `json:"actual_qty" validate:"omitempty,gte=0"`
}

func Start(log *slog.Logger, wo WorkOrderLifecycle) http.HandlerFunc {
	return simple("handlers.workorder.Start", log, wo.Start)
}

func MarkAbnormal(log *slog.Logger, wo WorkOrderLifecycle) http.HandlerFunc {
	return simple("handlers.workorder.MarkAbnormal", log, wo.MarkAbnormal)
}

func Cancel(log *slog.Logger, wo WorkOrderLifecycle) http.HandlerFunc {
	return simple("handlers.workorder.Cancel", log, wo.Cancel)
}

func Close(log *slog.Logger, wo WorkOrderLifecycle) http.HandlerFunc {
	return simple("handlers.workorder.Close", log, wo.Close)
}

func UpdateProgress(log *slog.Logger, wo WorkOrderLifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workorder.UpdateProgress"
		log := respond.Logger(log, r, op)

		orderNo := chi.URLParam(r, "id")

		var req ProgressRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := wo.UpdateProgress(ctx, orderNo, *req.ActualQty)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, order)
	}
}

// Complete accepts an empty body, which keeps the last reported quantity.
func Complete(log *slog.Logger, wo WorkOrderLifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workorder.Complete"
		log := respond.Logger(log, r, op)

		orderNo := chi.URLParam(r, "id")

		var req CompleteRequest
		if r.ContentLength != 0 {
			if err := respond.Decode(r, &req); err != nil {
				respond.Error(w, r, log, err)
				return
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := wo.Complete(ctx, orderNo, req.ActualQty)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		log.Info("work order completed", slog.String("order_no", orderNo), slog.Int("actual_qty", order.ActualQty))

		respond.OK(w, r, order)
	}
}

func simple(op string, log *slog.Logger, call func(context.Context, string) (*storage.WorkOrder, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := respond.Logger(log, r, op)

		orderNo := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		order, err := call(ctx, orderNo)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		log.Info("work order transitioned", slog.String("order_no", orderNo), slog.String("status", string(order.Status)))

		respond.OK(w, r, order)
	}
}
