// Package memory is an in-process record store with the same contract as
// storage/mysql. It backs the "memory" storage mode and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"smartmes/internal/storage"
)

type Storage struct {
	mu sync.RWMutex

	workOrders map[string]storage.WorkOrder
	downtime   map[int64]storage.DowntimeReport
	equipment  map[string]storage.Equipment
	products   map[string]storage.Product
	audit      []storage.AuditEntry

	nextDowntimeID int64
}

func New() *Storage {
	return &Storage{
		workOrders: make(map[string]storage.WorkOrder),
		downtime:   make(map[int64]storage.DowntimeReport),
		equipment:  make(map[string]storage.Equipment),
		products:   make(map[string]storage.Product),
	}
}

func (s *Storage) Close() error { return nil }

// ---- work orders

func (s *Storage) GetWorkOrder(_ context.Context, orderNo string) (*storage.WorkOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wo, ok := s.workOrders[orderNo]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneWorkOrder(wo), nil
}

func (s *Storage) WorkOrderExists(_ context.Context, orderNo string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.workOrders[orderNo]
	return ok, nil
}

func (s *Storage) InsertWorkOrder(_ context.Context, wo *storage.WorkOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workOrders[wo.OrderNo]; ok {
		return storage.ErrDuplicateKey
	}
	wo.Version = 1
	s.workOrders[wo.OrderNo] = *cloneWorkOrder(*wo)
	return nil
}

func (s *Storage) UpdateWorkOrder(_ context.Context, wo *storage.WorkOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.workOrders[wo.OrderNo]
	if !ok {
		return storage.ErrNotFound
	}
	if cur.Version != wo.Version {
		return storage.ErrVersionConflict
	}
	wo.Version++
	s.workOrders[wo.OrderNo] = *cloneWorkOrder(*wo)
	return nil
}

func (s *Storage) DeleteWorkOrder(_ context.Context, orderNo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workOrders[orderNo]; !ok {
		return storage.ErrNotFound
	}
	delete(s.workOrders, orderNo)
	return nil
}

func (s *Storage) FindWorkOrders(_ context.Context, f storage.WorkOrderFilter, page *storage.Page) ([]*storage.WorkOrder, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*storage.WorkOrder
	for _, wo := range s.workOrders {
		if matchWorkOrder(wo, f) {
			matched = append(matched, cloneWorkOrder(wo))
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].OrderNo < matched[j].OrderNo
	})

	return paginate(matched, page), int64(len(matched)), nil
}

func (s *Storage) CountWorkOrders(_ context.Context, f storage.WorkOrderFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, wo := range s.workOrders {
		if matchWorkOrder(wo, f) {
			n++
		}
	}
	return n, nil
}

func matchWorkOrder(wo storage.WorkOrder, f storage.WorkOrderFilter) bool {
	if f.ProductCode != "" && wo.ProductCode != f.ProductCode {
		return false
	}
	if f.Status != "" && wo.Status != f.Status {
		return false
	}
	if f.LineID != "" && wo.LineID != f.LineID {
		return false
	}
	if f.CreatedFrom != nil && wo.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && wo.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	return true
}

// ---- downtime

func (s *Storage) InsertDowntime(_ context.Context, r *storage.DowntimeReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDowntimeID++
	r.ID = s.nextDowntimeID
	r.Version = 1
	s.downtime[r.ID] = *cloneDowntime(*r)
	return nil
}

func (s *Storage) GetDowntime(_ context.Context, id int64) (*storage.DowntimeReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.downtime[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneDowntime(r), nil
}

func (s *Storage) UpdateDowntime(_ context.Context, r *storage.DowntimeReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.downtime[r.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if cur.Version != r.Version {
		return storage.ErrVersionConflict
	}
	r.Version++
	s.downtime[r.ID] = *cloneDowntime(*r)
	return nil
}

func (s *Storage) DeleteDowntime(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.downtime[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.downtime, id)
	return nil
}

func (s *Storage) FindDowntime(_ context.Context, f storage.DowntimeFilter, page *storage.Page) ([]*storage.DowntimeReport, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*storage.DowntimeReport
	for _, r := range s.downtime {
		if matchDowntime(r, f) {
			matched = append(matched, cloneDowntime(r))
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	return paginate(matched, page), int64(len(matched)), nil
}

func (s *Storage) AggregateDowntime(_ context.Context, f storage.DowntimeFilter, top int) (*storage.DowntimeAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reports []storage.DowntimeReport
	for _, r := range s.downtime {
		if matchDowntime(r, f) {
			reports = append(reports, r)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ID < reports[j].ID })

	agg := &storage.DowntimeAggregate{
		ByStatus: make(map[storage.DowntimeStatus]int64),
		ByType:   make(map[storage.DowntimeType]int64),
	}

	byEquipment := make(map[string]*storage.EquipmentDowntime)
	var order []string
	for _, r := range reports {
		agg.Total++
		agg.ByStatus[r.Status]++
		agg.ByType[r.Type]++

		stat, ok := byEquipment[r.EquipmentID]
		if !ok {
			stat = &storage.EquipmentDowntime{EquipmentID: r.EquipmentID}
			byEquipment[r.EquipmentID] = stat
			order = append(order, r.EquipmentID)
		}
		stat.Incidents++

		if r.DurationMinutes != nil {
			agg.TotalMinutes += int64(*r.DurationMinutes)
			stat.TotalMinutes += int64(*r.DurationMinutes)
		}
	}

	stats := make([]storage.EquipmentDowntime, 0, len(order))
	for _, id := range order {
		stats = append(stats, *byEquipment[id])
	}

	byIncidents := append([]storage.EquipmentDowntime(nil), stats...)
	sort.SliceStable(byIncidents, func(i, j int) bool { return byIncidents[i].Incidents > byIncidents[j].Incidents })

	byDuration := append([]storage.EquipmentDowntime(nil), stats...)
	sort.SliceStable(byDuration, func(i, j int) bool { return byDuration[i].TotalMinutes > byDuration[j].TotalMinutes })

	agg.TopByIncidents = head(byIncidents, top)
	agg.TopByDuration = head(byDuration, top)

	return agg, nil
}

func matchDowntime(r storage.DowntimeReport, f storage.DowntimeFilter) bool {
	if f.OrderID != "" && r.OrderID != f.OrderID {
		return false
	}
	if f.EquipmentID != "" && r.EquipmentID != f.EquipmentID {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.ReporterID != "" && r.ReporterID != f.ReporterID {
		return false
	}
	if f.StartFrom != nil && r.StartTime.Before(*f.StartFrom) {
		return false
	}
	if f.StartTo != nil && r.StartTime.After(*f.StartTo) {
		return false
	}
	return true
}

// ---- equipment

func (s *Storage) GetEquipment(_ context.Context, id string) (*storage.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.equipment[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &e, nil
}

func (s *Storage) InsertEquipment(_ context.Context, e *storage.Equipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.equipment[e.EquipmentID]; ok {
		return storage.ErrDuplicateKey
	}
	s.equipment[e.EquipmentID] = *e
	return nil
}

func (s *Storage) UpdateEquipment(_ context.Context, e *storage.Equipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.equipment[e.EquipmentID]; !ok {
		return storage.ErrNotFound
	}
	s.equipment[e.EquipmentID] = *e
	return nil
}

func (s *Storage) DeleteEquipment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.equipment[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.equipment, id)
	return nil
}

func (s *Storage) ListEquipment(_ context.Context, lineID string) ([]*storage.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*storage.Equipment
	for _, e := range s.equipment {
		if lineID != "" && e.LineID != lineID {
			continue
		}
		e := e
		list = append(list, &e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].EquipmentID < list[j].EquipmentID })
	return list, nil
}

func (s *Storage) CountEquipmentByStatus(_ context.Context) (map[storage.EquipmentStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[storage.EquipmentStatus]int64)
	for _, e := range s.equipment {
		counts[e.Status]++
	}
	return counts, nil
}

// ---- products

func (s *Storage) GetProduct(_ context.Context, code string) (*storage.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[code]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (s *Storage) InsertProduct(_ context.Context, p *storage.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.Code]; ok {
		return storage.ErrDuplicateKey
	}
	s.products[p.Code] = *p
	return nil
}

func (s *Storage) UpdateProduct(_ context.Context, p *storage.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.Code]; !ok {
		return storage.ErrNotFound
	}
	s.products[p.Code] = *p
	return nil
}

func (s *Storage) DeleteProduct(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[code]; !ok {
		return storage.ErrNotFound
	}
	delete(s.products, code)
	return nil
}

func (s *Storage) ListProducts(_ context.Context, nameLike string) ([]*storage.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(nameLike)
	var list []*storage.Product
	for _, p := range s.products {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		p := p
		list = append(list, &p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list, nil
}

// ---- audit

func (s *Storage) SaveAudit(_ context.Context, e storage.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = append(s.audit, e)
	return nil
}

// AuditEntries returns a copy of everything recorded so far.
func (s *Storage) AuditEntries() []storage.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]storage.AuditEntry(nil), s.audit...)
}

// ---- helpers

func paginate[T any](items []T, page *storage.Page) []T {
	if page == nil {
		return items
	}
	off := page.Offset()
	if off >= len(items) {
		return []T{}
	}
	end := off + page.Size
	if end > len(items) {
		end = len(items)
	}
	return items[off:end]
}

func head(list []storage.EquipmentDowntime, n int) []storage.EquipmentDowntime {
	if n > 0 && len(list) > n {
		return list[:n]
	}
	return list
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneWorkOrder(wo storage.WorkOrder) *storage.WorkOrder {
	wo.StartTime = cloneTime(wo.StartTime)
	wo.EndTime = cloneTime(wo.EndTime)
	return &wo
}

func cloneDowntime(r storage.DowntimeReport) *storage.DowntimeReport {
	r.EndTime = cloneTime(r.EndTime)
	if r.DurationMinutes != nil {
		d := *r.DurationMinutes
		r.DurationMinutes = &d
	}
	r.ResponderID = cloneString(r.ResponderID)
	r.ResponseNotes = cloneString(r.ResponseNotes)
	r.Solution = cloneString(r.Solution)
	return &r
}
