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

type BaseDataReader interface {
	GetEquipment(ctx context.Context, id string) (*storage.Equipment, error)
	ListEquipmentByLine(ctx context.Context, lineID string) ([]*storage.Equipment, error)
	GetProduct(ctx context.Context, code string) (*storage.Product, error)
	SearchProducts(ctx context.Context, name string) ([]*storage.Product, error)
}

// ListEquipment serves GET /api/base-data/equipment, narrowed by ?line_id=.
func ListEquipment(log *slog.Logger, reader BaseDataReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.basedata.ListEquipment"
		log := respond.Logger(log, r, op)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := reader.ListEquipmentByLine(ctx, r.URL.Query().Get("line_id"))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, list)
	}
}

func GetEquipment(log *slog.Logger, reader BaseDataReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.basedata.GetEquipment"
		log := respond.Logger(log, r, op)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		e, err := reader.GetEquipment(ctx, chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, e)
	}
}

// ListProducts serves GET /api/base-data/products; ?name= filters by
// substring.
func ListProducts(log *slog.Logger, reader BaseDataReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.basedata.ListProducts"
		log := respond.Logger(log, r, op)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := reader.SearchProducts(ctx, r.URL.Query().Get("name"))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, list)
	}
}

func GetProduct(log *slog.Logger, reader BaseDataReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.basedata.GetProduct"
		log := respond.Logger(log, r, op)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		p, err := reader.GetProduct(ctx, chi.URLParam(r, "code"))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.OK(w, r, p)
	}
}
