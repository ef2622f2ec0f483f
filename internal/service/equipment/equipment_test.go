package equipment

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartmes/internal/apperr"
	"smartmes/internal/clock"
	"smartmes/internal/service/audit"
	"smartmes/internal/storage"
	"smartmes/internal/storage/memory"
)

var now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.Local)

func newService(t *testing.T) (*Service, *memory.Storage, *audit.Recorder) {
	t.Helper()
	store := memory.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := audit.NewRecorder(log, store, clock.Fixed(now), audit.Options{QueueSize: 16})
	return New(log, store, clock.Fixed(now), rec), store, rec
}

func TestEquipmentLifecycle(t *testing.T) {
	svc, store, rec := newService(t)
	ctx := audit.WithActor(context.Background(), audit.Actor{UserID: "7", Username: "op"})

	e, err := svc.CreateEquipment(ctx, storage.Equipment{EquipmentID: "EQ-1", Name: "Press", LineID: "L1"})
	require.NoError(t, err)
	assert.Equal(t, storage.EquipmentIdle, e.Status)

	_, err = svc.CreateEquipment(ctx, storage.Equipment{EquipmentID: "EQ-1"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)

	_, err = svc.CreateEquipment(ctx, storage.Equipment{EquipmentID: "EQ-2", Status: "BROKEN"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	e, err = svc.SetStatus(ctx, "EQ-1", storage.EquipmentFault)
	require.NoError(t, err)
	assert.Equal(t, storage.EquipmentFault, e.Status)

	e, err = svc.UpdateEquipment(ctx, storage.Equipment{EquipmentID: "EQ-1", Name: "Press 2", LineID: "L2", Status: storage.EquipmentRunning})
	require.NoError(t, err)
	assert.Equal(t, "Press 2", e.Name)
	assert.Equal(t, storage.EquipmentFault, e.Status)

	byLine, err := svc.ListEquipmentByLine(ctx, "L2")
	require.NoError(t, err)
	assert.Len(t, byLine, 1)

	_, err = svc.SetStatus(ctx, "EQ-1", "ON_FIRE")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = svc.SetStatus(ctx, "EQ-404", storage.EquipmentIdle)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.DeleteEquipment(ctx, "EQ-1"))
	assert.ErrorIs(t, svc.DeleteEquipment(ctx, "EQ-1"), apperr.ErrNotFound)

	all, err := svc.ListEquipment(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, rec.Close(context.Background()))
	entries := store.AuditEntries()
	require.Len(t, entries, 4)
	assert.Equal(t, "op", entries[0].Username)
	assert.Equal(t, "status IDLE -> FAULT", entries[1].Details)
}

func TestProducts(t *testing.T) {
	svc, _, rec := newService(t)
	defer rec.Close(context.Background())
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, storage.Product{Code: "P-1", Name: "Steel Bracket", Unit: "pcs", StandardWorkTime: 12})
	require.NoError(t, err)
	assert.Equal(t, storage.ProductActive, p.Status)

	_, err = svc.CreateProduct(ctx, storage.Product{Code: "P-2", Name: "Aluminium Bracket"})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, storage.Product{Code: "P-3", Name: "Hinge"})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, storage.Product{Code: "P-1"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)
	_, err = svc.CreateProduct(ctx, storage.Product{Code: "P-4", StandardWorkTime: -1})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	found, err := svc.SearchProducts(ctx, "bracket")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	p, err = svc.UpdateProduct(ctx, storage.Product{Code: "P-3", Name: "Hinge v2", Status: storage.ProductInactive})
	require.NoError(t, err)
	assert.Equal(t, now, p.CreatedAt)
	assert.Equal(t, storage.ProductInactive, p.Status)

	_, err = svc.UpdateProduct(ctx, storage.Product{Code: "P-404", Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.DeleteProduct(ctx, "P-2"))
	_, err = svc.GetProduct(ctx, "P-2")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	all, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
