package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"smartmes/http-server/respond"
	"smartmes/internal/storage"
)

type DowntimeReporter interface {
	Report(ctx context.Context, r storage.DowntimeReport) (*storage.DowntimeReport, error)
}

type Request struct {
	OrderID     string     `json:"order_id" validate:"required"`
	EquipmentID string     `json:"equipment_id" validate:"required"`
	Type        string     `json:"downtime_type" validate:"required,oneof=EQUIPMENT_FAILURE MATERIAL_SHORTAGE QUALITY_ISSUE OPERATOR_ERROR TOOL_CHANGE OTHER"`
	Description string     `json:"description" validate:"required,max=1000"`
	StartTime   *time.Time `json:"start_time" validate:"required"`
	EndTime     *time.Time `json:"end_time"`
	ReporterID  string     `json:"reporter_id" validate:"required"`
	Attachments string     `json:"attachments"`
}

func ReportDowntime(log *slog.Logger, reporter DowntimeReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.downtime.ReportDowntime"
		log := respond.Logger(log, r, op)

		var req Request
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		report, err := reporter.Report(ctx, storage.DowntimeReport{
			OrderID:     req.OrderID,
			EquipmentID: req.EquipmentID,
			Type:        storage.DowntimeType(req.Type),
			Description: req.Description,
			StartTime:   *req.StartTime,
			EndTime:     req.EndTime,
			ReporterID:  req.ReporterID,
			Attachments: req.Attachments,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		log.Info("downtime reported", slog.Int64("report_id", report.ID), slog.String("equipment_id", report.EquipmentID))

		respond.Created(w, r, report)
	}
}
