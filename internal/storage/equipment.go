package storage

import "time"

type EquipmentStatus string

const (
	EquipmentRunning     EquipmentStatus = "RUNNING"
	EquipmentIdle        EquipmentStatus = "IDLE"
	EquipmentMaintenance EquipmentStatus = "MAINTENANCE"
	EquipmentFault       EquipmentStatus = "FAULT"
)

func (s EquipmentStatus) Valid() bool {
	switch s {
	case EquipmentRunning, EquipmentIdle, EquipmentMaintenance, EquipmentFault:
		return true
	}
	return false
}

func (s EquipmentStatus) DisplayName() string {
	switch s {
	case EquipmentRunning:
		return "Running"
	case EquipmentIdle:
		return "Idle"
	case EquipmentMaintenance:
		return "Maintenance"
	case EquipmentFault:
		return "Fault"
	}
	return string(s)
}

type Equipment struct {
	EquipmentID         string          `json:"equipment_id"`
	Name                string          `json:"equipment_name"`
	Type                string          `json:"equipment_type"`
	LineID              string          `json:"line_id"`
	Status              EquipmentStatus `json:"status"`
	LastMaintenanceTime *time.Time      `json:"last_maintenance_time"`
	NextMaintenanceTime *time.Time      `json:"next_maintenance_time"`
	Location            string          `json:"location"`
	Remarks             string          `json:"remarks"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type ProductStatus string

const (
	ProductActive   ProductStatus = "ACTIVE"
	ProductInactive ProductStatus = "INACTIVE"
)

type Product struct {
	Code             string        `json:"product_code"`
	Name             string        `json:"product_name"`
	Specification    string        `json:"specification"`
	Type             string        `json:"product_type"`
	Unit             string        `json:"unit"`
	StandardWorkTime int           `json:"standard_work_time"`
	Status           ProductStatus `json:"status"`
	Remarks          string        `json:"remarks"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type AuditEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Operation string    `json:"operation"`
	Module    string    `json:"module"`
	EntityID  string    `json:"entity_id"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}
