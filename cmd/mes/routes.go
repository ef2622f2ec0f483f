package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	adminremove "smartmes/http-server/admin/remove"
	adminsave "smartmes/http-server/admin/save"
	adminupdate "smartmes/http-server/admin/update"
	basedata "smartmes/http-server/base-data/get"
	dashboardget "smartmes/http-server/dashboard/get"
	downtimeget "smartmes/http-server/downtime/get"
	downtimeremove "smartmes/http-server/downtime/remove"
	downtimesave "smartmes/http-server/downtime/save"
	downtimeupdate "smartmes/http-server/downtime/update"
	generate_excel "smartmes/http-server/generate-report/generate-excel"
	workorderget "smartmes/http-server/work-order/get"
	workorderremove "smartmes/http-server/work-order/remove"
	workordersave "smartmes/http-server/work-order/save"
	"smartmes/http-server/work-order/transition"
	workorderupdate "smartmes/http-server/work-order/update"
	"smartmes/internal/config"
	"smartmes/internal/middleware/actor"
	"smartmes/internal/middleware/auth"
	"smartmes/internal/service/dashboard"
	"smartmes/internal/service/downtime"
	"smartmes/internal/service/equipment"
	"smartmes/internal/service/report"
	"smartmes/internal/service/workorder"
)

type services struct {
	workOrders *workorder.Service
	downtime   *downtime.Service
	dashboard  *dashboard.Service
	baseData   *equipment.Service
	reports    *report.Service
}

func routes(cfg config.Config, log *slog.Logger, svc services) http.Handler {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID", "X-Username"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(actor.New)

	router.Route("/api/work-orders", func(r chi.Router) {
		r.Post("/", workordersave.CreateWorkOrder(log, svc.workOrders))
		r.Get("/", workorderget.SearchWorkOrders(log, svc.workOrders))
		r.Get("/count", workorderget.CountWorkOrders(log, svc.workOrders))
		r.Get("/line/{lineId}/in-progress", workorderget.InProgressByLine(log, svc.workOrders))

		r.Get("/{id}", workorderget.GetWorkOrder(log, svc.workOrders))
		r.Put("/{id}", workorderupdate.UpdateWorkOrder(log, svc.workOrders))
		r.Delete("/{id}", workorderremove.DeleteWorkOrder(log, svc.workOrders))

		r.Post("/{id}/start", transition.Start(log, svc.workOrders))
		r.Post("/{id}/progress", transition.UpdateProgress(log, svc.workOrders))
		r.Post("/{id}/complete", transition.Complete(log, svc.workOrders))
		r.Post("/{id}/abnormal", transition.MarkAbnormal(log, svc.workOrders))
		r.Post("/{id}/cancel", transition.Cancel(log, svc.workOrders))
	})

	router.Route("/api/downtime", func(r chi.Router) {
		r.Post("/", downtimesave.ReportDowntime(log, svc.downtime))
		r.Get("/", downtimeget.QueryReports(log, svc.downtime))
		r.Get("/statistics", downtimeget.Statistics(log, svc.downtime))

		r.Get("/{id}", downtimeget.GetReport(log, svc.downtime))
		r.Post("/{id}/respond", downtimeupdate.Respond(log, svc.downtime))
		r.Post("/{id}/resolve", downtimeupdate.Resolve(log, svc.downtime))
		r.Delete("/{id}", downtimeremove.DeleteReport(log, svc.downtime))
	})

	router.Route("/api/dashboard", func(r chi.Router) {
		r.Get("/", dashboardget.CompleteDashboard(log, svc.dashboard))
		r.Get("/overview", dashboardget.ProductionOverview(log, svc.dashboard))
		r.Get("/downtime", dashboardget.DowntimeStatistics(log, svc.dashboard))
		r.Get("/progress", dashboardget.WorkOrderProgress(log, svc.dashboard))
		r.Get("/equipment", dashboardget.EquipmentStatus(log, svc.dashboard))
	})

	router.Get("/api/report/dashboard.xlsx", generate_excel.DashboardExcel(log, svc.reports))
	router.Get("/api/report/downtime.xlsx", generate_excel.DowntimeExcel(log, svc.reports))

	router.Route("/api/base-data", func(r chi.Router) {
		r.Get("/equipment", basedata.ListEquipment(log, svc.baseData))
		r.Get("/equipment/{id}", basedata.GetEquipment(log, svc.baseData))
		r.Get("/products", basedata.ListProducts(log, svc.baseData))
		r.Get("/products/{code}", basedata.GetProduct(log, svc.baseData))
	})

	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass))

	adminRouter.Post("/work-orders/{id}/close", transition.Close(log, svc.workOrders))

	adminRouter.Post("/equipment", adminsave.CreateEquipment(log, svc.baseData))
	adminRouter.Put("/equipment/{id}", adminupdate.UpdateEquipment(log, svc.baseData))
	adminRouter.Put("/equipment/{id}/status", adminupdate.SetEquipmentStatus(log, svc.baseData))
	adminRouter.Delete("/equipment/{id}", adminremove.DeleteEquipment(log, svc.baseData))

	adminRouter.Post("/products", adminsave.CreateProduct(log, svc.baseData))
	adminRouter.Put("/products/{code}", adminupdate.UpdateProduct(log, svc.baseData))
	adminRouter.Delete("/products/{code}", adminremove.DeleteProduct(log, svc.baseData))

	router.Mount("/api/admin", adminRouter)

	return router
}
