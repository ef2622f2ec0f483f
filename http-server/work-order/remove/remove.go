package remove

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"smartmes/http-server/respond"
)

type WorkOrderDeleter interface {
	Delete(ctx context.Context, orderNo string) error
}

func DeleteWorkOrder(log *slog.Logger, deleter WorkOrderDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workorder.DeleteWorkOrder"
		log := respond.Logger(log, r, op)

		orderNo := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := deleter.Delete(ctx, orderNo); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		log.Info("work order deleted", slog.String("order_no", orderNo))

		respond.OK(w, r, map[string]string{"order_no": orderNo})
	}
}
