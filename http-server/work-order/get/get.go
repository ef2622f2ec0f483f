package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"smartmes/http-server/respond"
	"smartmes/internal/storage"
)

type WorkOrderReader interface {
	Get(ctx context.Context, orderNo string) (*storage.WorkOrder, error)
	Search(ctx context.Context, f storage.WorkOrderFilter, page storage.Page) (*storage.PageResult[*storage.WorkOrder], error)
	CountByStatus(ctx context.Context, status storage.WorkOrderStatus) (int64, error)
	InProgressByLine(ctx context.Context, lineID string) ([]*storage.WorkOrder, error)
}

func GetWorkOrder(log *slog.Logger, reader WorkOrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workorder.GetWorkOrder"
		log := respond.Logger(log, r, op)

		orderNo := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		wo, err := reader.Get(ctx, orderNo)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, wo)
	}
}

// SearchWorkOrders serves GET /api/work-orders?product_code=&status=&line_id=&from=&to=&page=&size=
func SearchWorkOrders(log *slog.Logger, reader WorkOrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workorder.SearchWorkOrders"
		log := respond.Logger(log, r, op)

		q := r.URL.Query()
		filter := storage.WorkOrderFilter{
			ProductCode: q.Get("product_code"),
			Status:      storage.WorkOrderStatus(q.Get("status")),
			LineID:      q.Get("line_id"),
		}

		var err error
		if filter.CreatedFrom, err = respond.QueryTime(r, "from", false); err != nil {
			respond.Error(w, r, log, err)
			return
		}
		if filter.CreatedTo, err = respond.QueryTime(r, "to", true); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		pageNum, err := respond.QueryInt(r, "page", 1)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		pageSize, err := respond.QueryInt(r, "size", storage.DefaultPageSize)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		page, err := reader.Search(ctx, filter, storage.Page{Num: pageNum, Size: pageSize})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, page)
	}
}

func CountWorkOrders(log *slog.Logger, reader WorkOrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workorder.CountWorkOrders"
		log := respond.Logger(log, r, op)

		status := r.URL.Query().Get("status")
		if status == "" {
			respond.Fail(w, r, http.StatusBadRequest, "missing required query parameter 'status'")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		n, err := reader.CountByStatus(ctx, storage.WorkOrderStatus(status))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, map[string]any{"status": status, "count": n})
	}
}

func InProgressByLine(log *slog.Logger, reader WorkOrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workorder.InProgressByLine"
		log := respond.Logger(log, r, op)

		lineID := chi.URLParam(r, "lineId")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		orders, err := reader.InProgressByLine(ctx, lineID)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, orders)
	}
}
