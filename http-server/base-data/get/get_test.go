package get

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"smartmes/internal/apperr"
	"smartmes/internal/storage"
)

type MockReader struct {
	mock.Mock
}

func (m *MockReader) GetEquipment(ctx context.Context, id string) (*storage.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Equipment), args.Error(1)
}

func (m *MockReader) ListEquipmentByLine(ctx context.Context, lineID string) ([]*storage.Equipment, error) {
	args := m.Called(ctx, lineID)
	return args.Get(0).([]*storage.Equipment), args.Error(1)
}

func (m *MockReader) GetProduct(ctx context.Context, code string) (*storage.Product, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Product), args.Error(1)
}

func (m *MockReader) SearchProducts(ctx context.Context, name string) ([]*storage.Product, error) {
	args := m.Called(ctx, name)
	return args.Get(0).([]*storage.Product), args.Error(1)
}

func router(reader BaseDataReader) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Get("/api/base-data/equipment", ListEquipment(log, reader))
	r.Get("/api/base-data/equipment/{id}", GetEquipment(log, reader))
	r.Get("/api/base-data/products", ListProducts(log, reader))
	r.Get("/api/base-data/products/{code}", GetProduct(log, reader))
	return r
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestListEquipment_ByLine(t *testing.T) {
	m := new(MockReader)
	m.On("ListEquipmentByLine", mock.Anything, "L1").
		Return([]*storage.Equipment{{EquipmentID: "EQ-7", LineID: "L1", Status: storage.EquipmentRunning}}, nil)

	rr := get(router(m), "/api/base-data/equipment?line_id=L1")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"equipment_id":"EQ-7"`)
	m.AssertExpectations(t)
}

func TestGetEquipment_NotFound(t *testing.T) {
	m := new(MockReader)
	m.On("GetEquipment", mock.Anything, "EQ-404").Return(nil, apperr.NotFound("equipment.GetEquipment", "equipment", "EQ-404"))

	assert.Equal(t, http.StatusNotFound, get(router(m), "/api/base-data/equipment/EQ-404").Code)
}

func TestProducts(t *testing.T) {
	m := new(MockReader)
	m.On("SearchProducts", mock.Anything, "gear").Return([]*storage.Product{{Code: "P-1", Name: "Gear"}}, nil)
	m.On("GetProduct", mock.Anything, "P-1").Return(&storage.Product{Code: "P-1", Name: "Gear"}, nil)

	h := router(m)

	rr := get(h, "/api/base-data/products?name=gear")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"product_code":"P-1"`)

	rr = get(h, "/api/base-data/products/P-1")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"product_name":"Gear"`)

	m.AssertExpectations(t)
}
