package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"smartmes/http-server/respond"
	"smartmes/internal/service/dashboard"
)

type DashboardProvider interface {
	ProductionOverview(ctx context.Context) (*dashboard.ProductionOverview, error)
	DowntimeStatistics(ctx context.Context) (*dashboard.DowntimeStatistics, error)
	WorkOrderProgress(ctx context.Context) ([]dashboard.ProgressItem, error)
	EquipmentStatus(ctx context.Context) (*dashboard.EquipmentSummary, error)
	CompleteDashboard(ctx context.Context) (*dashboard.Dashboard, error)
}

func CompleteDashboard(log *slog.Logger, d DashboardProvider) http.HandlerFunc {
	return view("handlers.dashboard.CompleteDashboard", log, func(ctx context.Context) (any, error) {
		return d.CompleteDashboard(ctx)
	})
}

func ProductionOverview(log *slog.Logger, d DashboardProvider) http.HandlerFunc {
	return view("handlers.dashboard.ProductionOverview", log, func(ctx context.Context) (any, error) {
		return d.ProductionOverview(ctx)
	})
}

func DowntimeStatistics(log *slog.Logger, d DashboardProvider) http.HandlerFunc {
	return view("handlers.dashboard.DowntimeStatistics", log, func(ctx context.Context) (any, error) {
		return d.DowntimeStatistics(ctx)
	})
}

func WorkOrderProgress(log *slog.Logger, d DashboardProvider) http.HandlerFunc {
	return view("handlers.dashboard.WorkOrderProgress", log, func(ctx context.Context) (any, error) {
		return d.WorkOrderProgress(ctx)
	})
}

func EquipmentStatus(log *slog.Logger, d DashboardProvider) http.HandlerFunc {
	return view("handlers.dashboard.EquipmentStatus", log, func(ctx context.Context) (any, error) {
		return d.EquipmentStatus(ctx)
	})
}

func view(op string, log *slog.Logger, load func(context.Context) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := respond.Logger(log, r, op)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		data, err := load(ctx)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, data)
	}
}
