package generate_excel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"smartmes/internal/storage"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) DashboardWorkbook(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockGenerator) DowntimeWorkbook(ctx context.Context, filter storage.DowntimeFilter) ([]byte, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestDashboardExcel(t *testing.T) {
	m := new(MockGenerator)
	m.On("DashboardWorkbook", mock.Anything).Return([]byte("PK-xlsx"), nil)

	rr := httptest.NewRecorder()
	DashboardExcel(discard, m).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/reports/dashboard.xlsx", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment; filename=Dashboard_Report_")
	assert.Equal(t, "PK-xlsx", rr.Body.String())
}

func TestDowntimeExcel_Filter(t *testing.T) {
	m := new(MockGenerator)
	m.On("DowntimeWorkbook", mock.Anything, mock.MatchedBy(func(f storage.DowntimeFilter) bool {
		return f.EquipmentID == "EQ-7" && f.Status == storage.DowntimeResolved && f.StartFrom != nil && f.StartTo != nil
	})).Return([]byte("PK"), nil)

	rr := httptest.NewRecorder()
	DowntimeExcel(discard, m).ServeHTTP(rr,
		httptest.NewRequest(http.MethodGet, "/api/reports/downtime.xlsx?equipment_id=EQ-7&status=RESOLVED&from=2026-04-01&to=2026-04-30", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	m.AssertExpectations(t)
}

func TestDowntimeExcel_Errors(t *testing.T) {
	m := new(MockGenerator)

	rr := httptest.NewRecorder()
	DowntimeExcel(discard, m).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/reports/downtime.xlsx?from=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	m.AssertNotCalled(t, "DowntimeWorkbook")

	m.On("DowntimeWorkbook", mock.Anything, mock.Anything).Return(nil, errors.New("report.DowntimeWorkbook: disk full"))
	rr = httptest.NewRecorder()
	DowntimeExcel(discard, m).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/reports/downtime.xlsx", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "disk full")
}
