package workorder

import (
	"encoding/json"
	"time"
)

// Optional distinguishes "not supplied" from a supplied zero value. When
// decoded from JSON a field is set as soon as its key is present, so an
// explicit null clears a pointer field.
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Optional[T]) IsSet() bool { return o.set }

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.set = true
	return json.Unmarshal(b, &o.value)
}

// Patch lists the descriptive fields Update may change. Status and
// quantities reported from the floor are not part of it.
type Patch struct {
	ProductCode Optional[string]     `json:"product_code"`
	LineID      Optional[string]     `json:"line_id"`
	BatchNo     Optional[string]     `json:"batch_no"`
	PlanQty     Optional[int]        `json:"plan_qty"`
	EquipmentID Optional[string]     `json:"equipment_id"`
	OperatorID  Optional[string]     `json:"operator_id"`
	Remarks     Optional[string]     `json:"remarks"`
	StartTime   Optional[*time.Time] `json:"start_time"`
	EndTime     Optional[*time.Time] `json:"end_time"`
}

func (p Patch) empty() bool {
	return !p.ProductCode.set && !p.LineID.set && !p.BatchNo.set && !p.PlanQty.set &&
		!p.EquipmentID.set && !p.OperatorID.set && !p.Remarks.set &&
		!p.StartTime.set && !p.EndTime.set
}

func assign[T any](dst *T, o Optional[T]) {
	if v, ok := o.Get(); ok {
		*dst = v
	}
}
