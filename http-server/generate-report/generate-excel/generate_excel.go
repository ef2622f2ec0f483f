package generate_excel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"smartmes/http-server/downtime/get"
	"smartmes/http-server/respond"
	"smartmes/internal/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type WorkbookGenerator interface {
	DashboardWorkbook(ctx context.Context) ([]byte, error)
	DowntimeWorkbook(ctx context.Context, filter storage.DowntimeFilter) ([]byte, error)
}

func DashboardExcel(log *slog.Logger, gen WorkbookGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.DashboardExcel"
		log := respond.Logger(log, r, op)

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		data, err := gen.DashboardWorkbook(ctx)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		attach(w, "Dashboard", data)
	}
}

// DowntimeExcel accepts the same query parameters as the downtime list.
func DowntimeExcel(log *slog.Logger, gen WorkbookGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.DowntimeExcel"
		log := respond.Logger(log, r, op)

		filter, err := get.Filter(r)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		data, err := gen.DowntimeWorkbook(ctx, filter)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		attach(w, "Downtime", data)
	}
}

func attach(w http.ResponseWriter, prefix string, data []byte) {
	fileName := fmt.Sprintf("%s_Report_%s.xlsx", prefix, time.Now().Format("2006-01-02_150405"))

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
	_, _ = w.Write(data)
}
