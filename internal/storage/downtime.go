package storage

import "time"

type DowntimeType string

const (
	DowntimeEquipmentFailure DowntimeType = "EQUIPMENT_FAILURE"
	DowntimeMaterialShortage DowntimeType = "MATERIAL_SHORTAGE"
	DowntimeQualityIssue     DowntimeType = "QUALITY_ISSUE"
	DowntimeOperatorError    DowntimeType = "OPERATOR_ERROR"
	DowntimeToolChange       DowntimeType = "TOOL_CHANGE"
	DowntimeOther            DowntimeType = "OTHER"
)

func (t DowntimeType) Valid() bool {
	switch t {
	case DowntimeEquipmentFailure, DowntimeMaterialShortage, DowntimeQualityIssue,
		DowntimeOperatorError, DowntimeToolChange, DowntimeOther:
		return true
	}
	return false
}

func (t DowntimeType) DisplayName() string {
	switch t {
	case DowntimeEquipmentFailure:
		return "Equipment Failure"
	case DowntimeMaterialShortage:
		return "Material Shortage"
	case DowntimeQualityIssue:
		return "Quality Issue"
	case DowntimeOperatorError:
		return "Operator Error"
	case DowntimeToolChange:
		return "Tool Change"
	case DowntimeOther:
		return "Other"
	}
	return string(t)
}

type DowntimeStatus string

const (
	DowntimePending    DowntimeStatus = "PENDING"
	DowntimeProcessing DowntimeStatus = "PROCESSING"
	DowntimeResolved   DowntimeStatus = "RESOLVED"
)

func (s DowntimeStatus) Valid() bool {
	return s == DowntimePending || s == DowntimeProcessing || s == DowntimeResolved
}

type DowntimeReport struct {
	ID              int64          `json:"report_id"`
	OrderID         string         `json:"order_id"`
	EquipmentID     string         `json:"equipment_id"`
	Type            DowntimeType   `json:"downtime_type"`
	Description     string         `json:"description"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         *time.Time     `json:"end_time"`
	DurationMinutes *int           `json:"duration_minutes"`
	ReporterID      string         `json:"reporter_id"`
	ResponderID     *string        `json:"responder_id"`
	ResponseNotes   *string        `json:"response_notes"`
	Solution        *string        `json:"solution"`
	Status          DowntimeStatus `json:"status"`
	Attachments     string         `json:"attachments"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Version         int64          `json:"version"`
}

// DurationMinutes is the whole number of minutes from start to end, truncated.
func DurationMinutes(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}

type DowntimeFilter struct {
	OrderID     string
	EquipmentID string
	Type        DowntimeType
	Status      DowntimeStatus
	StartFrom   *time.Time
	StartTo     *time.Time
	ReporterID  string
}

type EquipmentDowntime struct {
	EquipmentID  string `json:"equipment_id"`
	Incidents    int64  `json:"incident_count"`
	TotalMinutes int64  `json:"total_duration_minutes"`
}

// DowntimeAggregate folds every report matching a filter. Top lists are
// ordered by their metric descending, ties by the lowest report id.
type DowntimeAggregate struct {
	Total          int64
	TotalMinutes   int64
	ByStatus       map[DowntimeStatus]int64
	ByType         map[DowntimeType]int64
	TopByIncidents []EquipmentDowntime
	TopByDuration  []EquipmentDowntime
}
