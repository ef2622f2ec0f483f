package storage

import (
	"encoding/json"
	"math"
	"time"
)

type WorkOrderStatus string

const (
	WOStatusPending    WorkOrderStatus = "PENDING"
	WOStatusInProgress WorkOrderStatus = "IN_PROGRESS"
	WOStatusCompleted  WorkOrderStatus = "COMPLETED"
	WOStatusAbnormal   WorkOrderStatus = "ABNORMAL"
	WOStatusCancelled  WorkOrderStatus = "CANCELLED"
	WOStatusClosed     WorkOrderStatus = "CLOSED"
)

func (s WorkOrderStatus) Valid() bool {
	switch s {
	case WOStatusPending, WOStatusInProgress, WOStatusCompleted, WOStatusAbnormal, WOStatusCancelled, WOStatusClosed:
		return true
	}
	return false
}

func (s WorkOrderStatus) DisplayName() string {
	switch s {
	case WOStatusPending:
		return "Pending"
	case WOStatusInProgress:
		return "In Progress"
	case WOStatusCompleted:
		return "Completed"
	case WOStatusAbnormal:
		return "Abnormal"
	case WOStatusCancelled:
		return "Cancelled"
	case WOStatusClosed:
		return "Closed"
	}
	return string(s)
}

type WorkOrder struct {
	OrderNo     string          `json:"order_no"`
	ProductCode string          `json:"product_code"`
	LineID      string          `json:"line_id"`
	BatchNo     string          `json:"batch_no"`
	PlanQty     int             `json:"plan_qty"`
	ActualQty   int             `json:"actual_qty"`
	Status      WorkOrderStatus `json:"status"`
	StartTime   *time.Time      `json:"start_time"`
	EndTime     *time.Time      `json:"end_time"`
	EquipmentID string          `json:"equipment_id"`
	OperatorID  string          `json:"operator_id"`
	CreatedBy   string          `json:"created_by"`
	Remarks     string          `json:"remarks"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int64           `json:"version"`
}

func (w *WorkOrder) CompletionRate() float64 {
	return CompletionRate(w.PlanQty, w.ActualQty)
}

// MarshalJSON adds the derived completion rate to the stored fields.
func (w WorkOrder) MarshalJSON() ([]byte, error) {
	type plain WorkOrder
	return json.Marshal(struct {
		plain
		CompletionRate float64 `json:"completion_rate"`
	}{plain(w), w.CompletionRate()})
}

// CompletionRate is actual/plan as a percentage rounded to two decimals.
func CompletionRate(planQty, actualQty int) float64 {
	if planQty <= 0 {
		return 0
	}
	return math.Round(float64(actualQty)*100/float64(planQty)*100) / 100
}

type WorkOrderFilter struct {
	ProductCode string
	Status      WorkOrderStatus
	LineID      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
