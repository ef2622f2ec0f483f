package update

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"smartmes/http-server/respond"
	"smartmes/internal/storage"
)

type DowntimeWorkflow interface {
	Respond(ctx context.Context, id int64, responderID, notes string) (*storage.DowntimeReport, error)
	Resolve(ctx context.Context, id int64, endTime time.Time, solution string) (*storage.DowntimeReport, error)
}

type RespondRequest struct {
	ResponderID string `json:"responder_id" validate:"required"`
	Notes       string `json:"notes" validate:"max=1000"`
}

type ResolveRequest struct {
	EndTime  *time.Time `json:"end_time" validate:"required"`
	Solution string     `json:"solution" validate:"required,max=1000"`
}

func Respond(log *slog.Logger, wf DowntimeWorkflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.downtime.Respond"
		log := respond.Logger(log, r, op)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respond.Fail(w, r, http.StatusBadRequest, "invalid report id")
			return
		}

		var req RespondRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		report, err := wf.Respond(ctx, id, req.ResponderID, req.Notes)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		log.Info("downtime responded", slog.Int64("report_id", id), slog.String("responder_id", req.ResponderID))

		respond.OK(w, r, report)
	}
}

func Resolve(log *slog.Logger, wf DowntimeWorkflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.downtime.Resolve"
		log := respond.Logger(log, r, op)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respond.Fail(w, r, http.StatusBadRequest, "invalid report id")
			return
		}

		var req ResolveRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		report, err := wf.Resolve(ctx, id, *req.EndTime, req.Solution)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		log.Info("downtime resolved", slog.Int64("report_id", id))

		respond.OK(w, r, report)
	}
}
