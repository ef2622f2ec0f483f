package remove

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"smartmes/http-server/respond"
)

type DowntimeDeleter interface {
	Delete(ctx context.Context, id int64) error
}

func DeleteReport(log *slog.Logger, deleter DowntimeDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.downtime.DeleteReport"
		log := respond.Logger(log, r, op)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respond.Fail(w, r, http.StatusBadRequest, "invalid report id")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := deleter.Delete(ctx, id); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		log.Info("downtime report deleted", slog.Int64("report_id", id))

		respond.OK(w, r, map[string]int64{"report_id": id})
	}
}
