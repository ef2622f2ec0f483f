package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartmes/internal/clock"
	"smartmes/internal/config"
	"smartmes/internal/service/audit"
	"smartmes/internal/service/dashboard"
	"smartmes/internal/service/downtime"
	"smartmes/internal/service/equipment"
	"smartmes/internal/service/events"
	"smartmes/internal/service/report"
	"smartmes/internal/service/workorder"
	"smartmes/internal/storage/memory"
	"smartmes/internal/storage/mysql"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// recordStore is what every service needs from storage. Both backends
// satisfy it.
type recordStore interface {
	workorder.Store
	downtime.Store
	equipment.Store
	dashboard.Store
	audit.Store
	Close() error
}

func main() {
	cfg := config.MustConfig()

	log := setupLogger(cfg.Env)

	store, err := openStorage(cfg, log)
	if err != nil {
		log.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var pub events.Publisher = events.Nop{}
	if cfg.Redis.Addr != "" {
		rp, err := events.NewRedisPublisher(cfg.Redis)
		if err != nil {
			log.Error("failed to connect redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rp.Close()
		pub = rp
		log.Info("event feed enabled", slog.String("redis", cfg.Redis.Addr))
	}

	clk := clock.Real{}
	recorder := audit.NewRecorder(log, store, clk, audit.Options{
		QueueSize:    cfg.Audit.QueueSize,
		WriteTimeout: cfg.Audit.WriteTimeout,
	})

	dash := dashboard.New(log, store, clk)
	downtimeService := downtime.New(log, store, clk, recorder, pub)

	svc := services{
		workOrders: workorder.New(log, store, clk, recorder, pub),
		downtime:   downtimeService,
		dashboard:  dash,
		baseData:   equipment.New(log, store, clk, recorder),
		reports:    report.New(dash, downtimeService),
	}

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, svc),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server started", slog.String("address", cfg.Address), slog.String("storage", cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed start server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Audit.DrainTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", slog.String("error", err.Error()))
	}
	if err := recorder.Close(shutdownCtx); err != nil {
		log.Warn("audit queue not drained", slog.String("error", err.Error()))
	}
	if err := store.Close(); err != nil {
		log.Error("close storage", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}

func openStorage(cfg *config.Config, log *slog.Logger) (recordStore, error) {
	switch cfg.Storage {
	case "memory":
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	case "mysql", "":
		if cfg.MySQL.Migrate {
			start := time.Now()
			if err := mysql.Migrate(cfg.MySQL); err != nil {
				return nil, err
			}
			log.Info("schema migrated", slog.Duration("took", time.Since(start)))
		}
		return mysql.New(cfg.MySQL)
	}
	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}

type dualHandler struct {
	coreHandler  slog.Handler
	errorHandler slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.coreHandler.Enabled(ctx, lvl) || h.errorHandler.Enabled(ctx, lvl)
}

func (h *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error

	if h.coreHandler.Enabled(ctx, r.Level) {
		if err = h.coreHandler.Handle(ctx, r); err != nil {
			return err
		}
	}

	// errors are mirrored into errors.log; a failing file never fails the call
	if r.Level >= slog.LevelError && h.errorHandler.Enabled(ctx, r.Level) {
		_ = h.errorHandler.Handle(ctx, r.Clone())
	}

	return err
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithAttrs(attrs),
		errorHandler: h.errorHandler.WithAttrs(attrs),
	}
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithGroup(name),
		errorHandler: h.errorHandler.WithGroup(name),
	}
}

func setupLogger(env string) *slog.Logger {
	level := slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	var coreHandler slog.Handler
	switch env {
	case envDev, envProd:
		coreHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		coreHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	errorFile, err := os.OpenFile("errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Warn("cannot open error log file", slog.String("error", err.Error()))
		return slog.New(coreHandler)
	}

	errorHandler := slog.NewTextHandler(errorFile, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	return slog.New(&dualHandler{
		coreHandler:  coreHandler,
		errorHandler: errorHandler,
	})
}
