package store

import (
	"context"
	"testing"

	"github.com/erp/modulith/internal/application/uow"
	"github.com/erp/modulith/internal/domain/shared"
	"github.com/erp/modulith/internal/infrastructure/config"
	"github.com/erp/modulith/internal/infrastructure/persistence"
	"github.com/erp/modulith/internal/modules/catalog/catalogapi"
	"github.com/erp/modulith/internal/modules/catalog/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*WidgetStore, *persistence.Database) {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         "file:" + t.Name() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewWidgetStore(db.DB)
	require.NoError(t, s.Migrate(context.Background(), db.DB))
	return s, db
}

func TestWidgetStore_FindByID(t *testing.T) {
	s, db := newTestStore(t)
	w, err := domain.NewWidget("Sprocket", "parts", decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	require.NoError(t, db.DB.Create(w).Error)

	found, err := s.FindByID(context.Background(), w.ID)
	require.NoError(t, err)

	assert.Equal(t, "Sprocket", found.Name)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, catalogapi.WidgetStatusActive, found.Status)
	assert.False(t, found.HasPendingEvents())
}

func TestWidgetStore_FindByID_ReturnsTrackedInstance(t *testing.T) {
	s, db := newTestStore(t)
	w, err := domain.NewWidget("Sprocket", "parts", decimal.NewFromInt(3))
	require.NoError(t, err)
	require.NoError(t, db.DB.Create(w).Error)

	noop := shared.EventPublisherFunc(func(context.Context, ...shared.DomainEvent) error { return nil })
	factory := persistence.NewUnitOfWorkFactory(db.DB, uow.NewEventDispatcher(noop, 0, zap.NewNop()))
	err = uow.Run(context.Background(), factory, func(ctx context.Context, u uow.UnitOfWork) error {
		first, err := s.FindByID(ctx, w.ID)
		require.NoError(t, err)
		require.NoError(t, first.Discontinue("superseded"))
		require.NoError(t, u.Attach(first))

		second, err := s.FindByID(ctx, w.ID)
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, catalogapi.WidgetStatusDiscontinued, second.Status)
		return nil
	})
	require.NoError(t, err)

	stored, err := s.FindByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, catalogapi.WidgetStatusDiscontinued, stored.Status)
}

func TestWidgetStore_FindByID_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.FindByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, catalogapi.ErrWidgetNotFound)
}

func TestWidgetStore_FindByCategory(t *testing.T) {
	s, db := newTestStore(t)
	for _, name := range []string{"Zeta", "Alpha"} {
		w, err := domain.NewWidget(name, "parts", decimal.NewFromInt(1))
		require.NoError(t, err)
		require.NoError(t, db.DB.Create(w).Error)
	}
	other, err := domain.NewWidget("Gear", "tools", decimal.NewFromInt(1))
	require.NoError(t, err)
	require.NoError(t, db.DB.Create(other).Error)

	widgets, err := s.FindByCategory(context.Background(), "parts")
	require.NoError(t, err)

	require.Len(t, widgets, 2)
	assert.Equal(t, "Alpha", widgets[0].Name)
	assert.Equal(t, "Zeta", widgets[1].Name)
}
