package workorder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartmes/internal/apperr"
	"smartmes/internal/clock"
	"smartmes/internal/service/audit"
	"smartmes/internal/service/events"
	"smartmes/internal/storage"
	"smartmes/internal/storage/memory"
)

var now = time.Date(2026, 4, 1, 9, 30, 0, 0, time.Local)

type recordingAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *recordingAuditor) Record(_ context.Context, e audit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return p.err
}

type fixture struct {
	svc   *Service
	store *memory.Storage
	audit *recordingAuditor
	pub   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.New(),
		audit: &recordingAuditor{},
		pub:   &recordingPublisher{},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = New(log, f.store, clock.Fixed(now), f.audit, f.pub)
	return f
}

func (f *fixture) create(t *testing.T, orderNo string, planQty int) *storage.WorkOrder {
	t.Helper()
	wo, err := f.svc.Create(context.Background(), storage.WorkOrder{
		OrderNo:     orderNo,
		ProductCode: "P-100",
		LineID:      "L1",
		PlanQty:     planQty,
	})
	require.NoError(t, err)
	return wo
}

// seed writes an order in an arbitrary status, bypassing the engine.
func (f *fixture) seed(t *testing.T, orderNo string, status storage.WorkOrderStatus) {
	t.Helper()
	require.NoError(t, f.store.InsertWorkOrder(context.Background(), &storage.WorkOrder{
		OrderNo:   orderNo,
		PlanQty:   10,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

var allStatuses = []storage.WorkOrderStatus{
	storage.WOStatusPending,
	storage.WOStatusInProgress,
	storage.WOStatusCompleted,
	storage.WOStatusAbnormal,
	storage.WOStatusCancelled,
	storage.WOStatusClosed,
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wo := f.create(t, "WO-001", 100)
	assert.Equal(t, storage.WOStatusPending, wo.Status)
	assert.Equal(t, 0, wo.ActualQty)
	assert.Equal(t, now, wo.CreatedAt)

	_, err := f.svc.Create(ctx, storage.WorkOrder{OrderNo: "WO-001", PlanQty: 5})
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)

	_, err = f.svc.Create(ctx, storage.WorkOrder{OrderNo: "  ", PlanQty: 5})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = f.svc.Create(ctx, storage.WorkOrder{OrderNo: "WO-002", PlanQty: 0})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, "create", f.pub.events[0].Operation)
}

func TestStartOnlyFromPending(t *testing.T) {
	for _, status := range allStatuses {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.seed(t, "WO-S", status)

			before, err := f.store.GetWorkOrder(ctx, "WO-S")
			require.NoError(t, err)

			wo, err := f.svc.Start(ctx, "WO-S")
			if status == storage.WOStatusPending {
				require.NoError(t, err)
				assert.Equal(t, storage.WOStatusInProgress, wo.Status)
				require.NotNil(t, wo.StartTime)
				assert.Equal(t, now, *wo.StartTime)
				return
			}

			require.ErrorIs(t, err, apperr.ErrInvalidTransition)
			var appErr *apperr.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, string(status), appErr.From)
			assert.Equal(t, "start", appErr.Operation)

			after, err := f.store.GetWorkOrder(ctx, "WO-S")
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestCompleteAllowedStatuses(t *testing.T) {
	for _, status := range allStatuses {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, "WO-C", status)

			_, err := f.svc.Complete(context.Background(), "WO-C", nil)
			if status == storage.WOStatusInProgress || status == storage.WOStatusAbnormal {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
			}
		})
	}
}

func TestDeleteRejectedWhileActiveOrCompleted(t *testing.T) {
	for _, status := range allStatuses {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.seed(t, "WO-D", status)

			err := f.svc.Delete(ctx, "WO-D")
			exists, existsErr := f.svc.Exists(ctx, "WO-D")
			require.NoError(t, existsErr)

			if status == storage.WOStatusInProgress || status == storage.WOStatusCompleted {
				assert.ErrorIs(t, err, apperr.ErrInvalidState)
				assert.True(t, exists)
			} else {
				assert.NoError(t, err)
				assert.False(t, exists)
			}
		})
	}
}

func TestCancel(t *testing.T) {
	for _, status := range allStatuses {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, "WO-X", status)

			wo, err := f.svc.Cancel(context.Background(), "WO-X")
			switch status {
			case storage.WOStatusPending, storage.WOStatusInProgress, storage.WOStatusAbnormal:
				require.NoError(t, err)
				assert.Equal(t, storage.WOStatusCancelled, wo.Status)
			default:
				assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
			}
		})
	}
}

func TestMarkAbnormalAndRecover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "WO-A", 40)

	_, err := f.svc.MarkAbnormal(ctx, "WO-A")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.svc.Start(ctx, "WO-A")
	require.NoError(t, err)

	wo, err := f.svc.MarkAbnormal(ctx, "WO-A")
	require.NoError(t, err)
	assert.Equal(t, storage.WOStatusAbnormal, wo.Status)

	_, err = f.svc.UpdateProgress(ctx, "WO-A", 10)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	wo, err = f.svc.Complete(ctx, "WO-A", nil)
	require.NoError(t, err)
	assert.Equal(t, storage.WOStatusCompleted, wo.Status)
	assert.Equal(t, 0, wo.ActualQty)
}

func TestCloseOnlyFinished(t *testing.T) {
	for _, status := range allStatuses {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, "WO-Z", status)

			wo, err := f.svc.Close(context.Background(), "WO-Z")
			if status == storage.WOStatusCompleted || status == storage.WOStatusCancelled {
				require.NoError(t, err)
				assert.Equal(t, storage.WOStatusClosed, wo.Status)
			} else {
				assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
			}
		})
	}
}

func TestLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "WO-001", 100)

	_, err := f.svc.Start(ctx, "WO-001")
	require.NoError(t, err)

	wo, err := f.svc.UpdateProgress(ctx, "WO-001", 60)
	require.NoError(t, err)
	assert.Equal(t, 60, wo.ActualQty)

	qty := 100
	_, err = f.svc.Complete(ctx, "WO-001", &qty)
	require.NoError(t, err)

	wo, err = f.svc.Get(ctx, "WO-001")
	require.NoError(t, err)
	assert.Equal(t, storage.WOStatusCompleted, wo.Status)
	assert.Equal(t, 100, wo.ActualQty)
	assert.Equal(t, 100.0, wo.CompletionRate())
	require.NotNil(t, wo.EndTime)

	ops := make([]string, 0, len(f.audit.entries))
	for _, e := range f.audit.entries {
		ops = append(ops, e.Operation)
	}
	assert.Equal(t, []string{"create", "start", "update progress", "complete"}, ops)

	last := f.pub.events[len(f.pub.events)-1]
	assert.Equal(t, string(storage.WOStatusInProgress), last.From)
	assert.Equal(t, string(storage.WOStatusCompleted), last.To)
}

func TestUpdateProgressOverwritesWithoutCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "WO-P", 50)
	_, err := f.svc.Start(ctx, "WO-P")
	require.NoError(t, err)

	_, err = f.svc.UpdateProgress(ctx, "WO-P", 30)
	require.NoError(t, err)
	wo, err := f.svc.UpdateProgress(ctx, "WO-P", 75)
	require.NoError(t, err)
	assert.Equal(t, 75, wo.ActualQty)
	assert.Equal(t, 150.0, wo.CompletionRate())

	_, err = f.svc.UpdateProgress(ctx, "WO-P", -1)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Start(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, "missing"), apperr.ErrNotFound)
	_, err = f.svc.Update(ctx, "missing", Patch{Remarks: Some("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdatePatchPresence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orig := f.create(t, "WO-U", 20)

	wo, err := f.svc.Update(ctx, "WO-U", Patch{
		PlanQty: Some(25),
		Remarks: Some(""),
	})
	require.NoError(t, err)
	assert.Equal(t, 25, wo.PlanQty)
	assert.Equal(t, "", wo.Remarks)
	assert.Equal(t, orig.ProductCode, wo.ProductCode)
	assert.Equal(t, orig.LineID, wo.LineID)
	assert.Equal(t, storage.WOStatusPending, wo.Status)

	_, err = f.svc.Update(ctx, "WO-U", Patch{PlanQty: Some(0)})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = f.svc.Update(ctx, "WO-U", Patch{})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestPatchFromJSON(t *testing.T) {
	var p Patch
	require.NoError(t, json.Unmarshal([]byte(`{"line_id":"L9","start_time":null}`), &p))

	line, ok := p.LineID.Get()
	assert.True(t, ok)
	assert.Equal(t, "L9", line)

	start, ok := p.StartTime.Get()
	assert.True(t, ok)
	assert.Nil(t, start)

	assert.False(t, p.ProductCode.IsSet())
	assert.False(t, p.PlanQty.IsSet())
}

func TestUpdateClearsStartTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "WO-T", 20)
	_, err := f.svc.Start(ctx, "WO-T")
	require.NoError(t, err)

	var p Patch
	require.NoError(t, json.Unmarshal([]byte(`{"start_time":null}`), &p))

	wo, err := f.svc.Update(ctx, "WO-T", p)
	require.NoError(t, err)
	assert.Nil(t, wo.StartTime)
	assert.Equal(t, storage.WOStatusInProgress, wo.Status)
}

func TestStaleWriteIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "WO-R", 10)

	stale, err := f.store.GetWorkOrder(ctx, "WO-R")
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, "WO-R")
	require.NoError(t, err)

	stale.Status = storage.WOStatusCancelled
	err = apperr.FromStore("test", entity, "WO-R", f.store.UpdateWorkOrder(ctx, stale))
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, no := range []string{"WO-1", "WO-2", "WO-3"} {
		f.create(t, no, 10)
	}
	_, err := f.svc.Start(ctx, "WO-2")
	require.NoError(t, err)

	page, err := f.svc.List(ctx, storage.Page{Num: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)

	res, err := f.svc.Search(ctx, storage.WorkOrderFilter{Status: storage.WOStatusInProgress}, storage.Page{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "WO-2", res.Items[0].OrderNo)
	assert.Equal(t, storage.DefaultPageSize, res.PageSize)

	n, err := f.svc.CountByStatus(ctx, storage.WOStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = f.svc.CountByStatus(ctx, "BOGUS")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	running, err := f.svc.InProgressByLine(ctx, "L1")
	require.NoError(t, err)
	assert.Len(t, running, 1)

	running, err = f.svc.InProgressByLine(ctx, "L2")
	require.NoError(t, err)
	assert.Empty(t, running)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("redis down")

	wo := f.create(t, "WO-E", 10)
	assert.Equal(t, storage.WOStatusPending, wo.Status)
}
