package update

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"smartmes/http-server/respond"
	"smartmes/internal/service/workorder"
	"smartmes/internal/storage"
)

type WorkOrderUpdater interface {
	Update(ctx context.Context, orderNo string, p workorder.Patch) (*storage.WorkOrder, error)
}

// UpdateWorkOrder applies a partial update. Keys missing from the body are
// left alone; a key set to null clears the field.
func UpdateWorkOrder(log *slog.Logger, updater WorkOrderUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workorder.UpdateWorkOrder"
		log := respond.Logger(log, r, op)

		orderNo := chi.URLParam(r, "id")

		var patch workorder.Patch
		if err := respond.Decode(r, &patch); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		wo, err := updater.Update(ctx, orderNo, patch)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		log.Info("work order updated", slog.String("order_no", orderNo))

		respond.OK(w, r, wo)
	}
}
