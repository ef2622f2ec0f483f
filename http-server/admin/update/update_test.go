package update

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"smartmes/internal/apperr"
	"smartmes/internal/storage"
)

type MockUpdater struct {
	mock.Mock
}

func (m *MockUpdater) UpdateEquipment(ctx context.Context, e storage.Equipment) (*storage.Equipment, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Equipment), args.Error(1)
}

func (m *MockUpdater) SetStatus(ctx context.Context, id string, status storage.EquipmentStatus) (*storage.Equipment, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Equipment), args.Error(1)
}

func (m *MockUpdater) UpdateProduct(ctx context.Context, p storage.Product) (*storage.Product, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Product), args.Error(1)
}

func router(u BaseDataUpdater) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Put("/api/admin/equipment/{id}", UpdateEquipment(log, u))
	r.Put("/api/admin/equipment/{id}/status", SetEquipmentStatus(log, u))
	r.Put("/api/admin/products/{code}", UpdateProduct(log, u))
	return r
}

func put(h http.Handler, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, path, strings.NewReader(body)))
	return rr
}

func TestSetEquipmentStatus(t *testing.T) {
	m := new(MockUpdater)
	m.On("SetStatus", mock.Anything, "EQ-7", storage.EquipmentFault).
		Return(&storage.Equipment{EquipmentID: "EQ-7", Status: storage.EquipmentFault}, nil)

	h := router(m)

	rr := put(h, "/api/admin/equipment/EQ-7/status", `{"status":"FAULT"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"FAULT"`)

	rr = put(h, "/api/admin/equipment/EQ-7/status", `{"status":"ON_FIRE"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	m.AssertNumberOfCalls(t, "SetStatus", 1)
}

func TestUpdateEquipment_UsesPathID(t *testing.T) {
	m := new(MockUpdater)
	m.On("UpdateEquipment", mock.Anything, mock.MatchedBy(func(e storage.Equipment) bool {
		return e.EquipmentID == "EQ-9" && e.Name == "Lathe"
	})).Return(nil, apperr.NotFound("equipment.UpdateEquipment", "equipment", "EQ-9"))

	rr := put(router(m), "/api/admin/equipment/EQ-9", `{"equipment_name":"Lathe","line_id":"L2"}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	m.AssertExpectations(t)
}

func TestUpdateProduct(t *testing.T) {
	m := new(MockUpdater)
	m.On("UpdateProduct", mock.Anything, mock.MatchedBy(func(p storage.Product) bool {
		return p.Code == "P-1" && p.Status == storage.ProductInactive
	})).Return(&storage.Product{Code: "P-1", Status: storage.ProductInactive}, nil)

	rr := put(router(m), "/api/admin/products/P-1", `{"product_name":"Gear","status":"INACTIVE"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	m.AssertExpectations(t)
}
