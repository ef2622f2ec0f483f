package remove

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"smartmes/http-server/respond"
)

type BaseDataDeleter interface {
	DeleteEquipment(ctx context.Context, id string) error
	DeleteProduct(ctx context.Context, code string) error
}

func DeleteEquipment(log *slog.Logger, deleter BaseDataDeleter) http.HandlerFunc {
	return del("handlers.admin.DeleteEquipment", "id", "equipment_id", log, deleter.DeleteEquipment)
}

func DeleteProduct(log *slog.Logger, deleter BaseDataDeleter) http.HandlerFunc {
	return del("handlers.admin.DeleteProduct", "code", "product_code", log, deleter.DeleteProduct)
}

func del(op, param, field string, log *slog.Logger, call func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := respond.Logger(log, r, op)
		key := chi.URLParam(r, param)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := call(ctx, key); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		log.Info("deleted", slog.String(field, key))

		respond.OK(w, r, map[string]string{field: key})
	}
}
