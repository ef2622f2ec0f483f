package get

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"smartmes/http-server/respond"
	"smartmes/internal/service/downtime"
	"smartmes/internal/storage"
)

type DowntimeReader interface {
	Get(ctx context.Context, id int64) (*storage.DowntimeReport, error)
	Query(ctx context.Context, f storage.DowntimeFilter, pageNum, pageSize int) (*storage.PageResult[*storage.DowntimeReport], error)
	Statistics(ctx context.Context) (*downtime.Statistics, error)
}

func GetReport(log *slog.Logger, reader DowntimeReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.downtime.GetReport"
		log := respond.Logger(log, r, op)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respond.Fail(w, r, http.StatusBadRequest, "invalid report id")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		report, err := reader.Get(ctx, id)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, report)
	}
}

// QueryReports serves GET /api/downtime with optional order_id, equipment_id,
// type, status, reporter_id, from, to, page and size parameters.
func QueryReports(log *slog.Logger, reader DowntimeReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.downtime.QueryReports"
		log := respond.Logger(log, r, op)

		filter, err := Filter(r)
		if err != nil {
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

		page, err := reader.Query(ctx, filter, pageNum, pageSize)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, page)
	}
}

func Statistics(log *slog.Logger, reader DowntimeReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.downtime.Statistics"
		log := respond.Logger(log, r, op)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		stats, err := reader.Statistics(ctx)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, stats)
	}
}

// Filter reads the downtime filter from query parameters. The excel export
// shares it.
func Filter(r *http.Request) (storage.DowntimeFilter, error) {
	q := r.URL.Query()
	f := storage.DowntimeFilter{
		OrderID:     q.Get("order_id"),
		EquipmentID: q.Get("equipment_id"),
		Type:        storage.DowntimeType(q.Get("type")),
		Status:      storage.DowntimeStatus(q.Get("status")),
		ReporterID:  q.Get("reporter_id"),
	}

	var err error
	if f.StartFrom, err = respond.QueryTime(r, "from", false); err != nil {
		return f, err
	}
	if f.StartTo, err = respond.QueryTime(r, "to", true); err != nil {
		return f, err
	}
	return f, nil
}
