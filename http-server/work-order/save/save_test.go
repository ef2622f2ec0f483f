package save

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"smartmes/internal/apperr"
	"smartmes/internal/service/audit"
	"smartmes/internal/storage"
)

type MockCreator struct {
	mock.Mock
}

func (m *MockCreator) Create(ctx context.Context, wo storage.WorkOrder) (*storage.WorkOrder, error) {
	args := m.Called(ctx, wo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.WorkOrder), args.Error(1)
}

func post(h http.Handler, body string, actor audit.Actor) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/work-orders", strings.NewReader(body))
	req = req.WithContext(audit.WithActor(req.Context(), actor))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreateWorkOrder_Success(t *testing.T) {
	m := new(MockCreator)
	m.On("Create", mock.Anything, mock.MatchedBy(func(wo storage.WorkOrder) bool {
		return wo.OrderNo == "WO-001" && wo.PlanQty == 100 && wo.CreatedBy == "planner"
	})).Return(&storage.WorkOrder{OrderNo: "WO-001", PlanQty: 100, Status: storage.WOStatusPending}, nil)

	h := CreateWorkOrder(slog.New(slog.NewTextHandler(io.Discard, nil)), m)
	rr := post(h, `{"order_no":"WO-001","product_code":"P-1","line_id":"L1","plan_qty":100}`, audit.Actor{Username: "planner"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"order_no":"WO-001"`)
	m.AssertExpectations(t)
}

func TestCreateWorkOrder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing order no", `{"product_code":"P-1","line_id":"L1","plan_qty":1}`, "field OrderNo is required"},
		{"zero plan", `{"order_no":"WO-1","product_code":"P-1","line_id":"L1","plan_qty":0}`, "field PlanQty must be greater than 0"},
		{"bad json", `{"order_no":`, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockCreator)
			h := CreateWorkOrder(slog.New(slog.NewTextHandler(io.Discard, nil)), m)

			rr := post(h, tt.body, audit.Actor{})

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.message)
			m.AssertNotCalled(t, "Create")
		})
	}
}

func TestCreateWorkOrder_Duplicate(t *testing.T) {
	m := new(MockCreator)
	m.On("Create", mock.Anything, mock.Anything).
		Return(nil, apperr.DuplicateKey("workorder.Create", "work order", "WO-001"))

	h := CreateWorkOrder(slog.New(slog.NewTextHandler(io.Discard, nil)), m)
	rr := post(h, `{"order_no":"WO-001","product_code":"P-1","line_id":"L1","plan_qty":5}`, audit.Actor{})

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already exists")
}
