package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"smartmes/http-server/respond"
	"smartmes/internal/service/audit"
	"smartmes/internal/storage"
)

type WorkOrderCreator interface {
	Create(ctx context.Context, wo storage.WorkOrder) (*storage.WorkOrder, error)
}

type Request struct {
	OrderNo     string     `json:"order_no" validate:"required,max=64"`
	ProductCode string     `json:"product_code" validate:"required,max=64"`
	LineID      string     `json:"line_id" validate:"required,max=64"`
	BatchNo     string     `json:"batch_no" validate:"max=64"`
	PlanQty     int        `json:"plan_qty" validate:"gt=0"`
	EquipmentID string     `json:"equipment_id"`
	OperatorID  string     `json:"operator_id"`
	StartTime   *time.Time `json:"start_time"`
	Remarks     string     `json:"remarks" validate:"max=500"`
}

func CreateWorkOrder(log *slog.Logger, creator WorkOrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workorder.CreateWorkOrder"
		log := respond.Logger(log, r, op)

		var req Request
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		createdBy := audit.ActorFrom(r.Context()).Username

		wo, err := creator.Create(ctx, storage.WorkOrder{
			OrderNo:     req.OrderNo,
			ProductCode: req.ProductCode,
			LineID:      req.LineID,
			BatchNo:     req.BatchNo,
			PlanQty:     req.PlanQty,
			EquipmentID: req.EquipmentID,
			OperatorID:  req.OperatorID,
			StartTime:   req.StartTime,
			CreatedBy:   createdBy,
			Remarks:     req.Remarks,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		log.Info("work order created", slog.String("order_no", wo.OrderNo))

		respond.Created(w, r, wo)
	}
}
