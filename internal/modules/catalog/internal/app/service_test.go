package app

import (
	"context"
	"testing"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/application/uow"
	"github.com/erp/modulith/internal/domain/shared"
	"github.com/erp/modulith/internal/infrastructure/config"
	"github.com/erp/modulith/internal/infrastructure/persistence"
	"github.com/erp/modulith/internal/modules/catalog/catalogapi"
	"github.com/erp/modulith/internal/modules/catalog/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	service   *Service
	published []shared.DomainEvent
}

func newFixture(t *testing.T) *fixture {
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

	f := &fixture{}
	publisher := shared.EventPublisherFunc(func(ctx context.Context, events ...shared.DomainEvent) error {
		f.published = append(f.published, events...)
		return nil
	})
	factory := persistence.NewUnitOfWorkFactory(db.DB, uow.NewEventDispatcher(publisher, 0, zap.NewNop()))
	widgets := store.NewWidgetStore(db.DB)
	require.NoError(t, widgets.Migrate(context.Background(), db.DB))
	f.service = NewService(widgets, factory, zap.NewNop())
	return f
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.service.Create(ctx, catalogapi.CreateWidget{Name: "Sprocket", Category: "parts", Price: decimal.NewFromInt(4)})
	require.NoError(t, err)

	dto, err := f.service.GetWidget(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Sprocket", dto.Name)
	assert.Equal(t, catalogapi.WidgetStatusActive, dto.Status)

	require.Len(t, f.published, 1)
	assert.Equal(t, catalogapi.EventTypeWidgetCreated, f.published[0].EventType())
}

func TestService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, req := range []catalogapi.CreateWidget{
		{Name: "Zeta", Category: "parts", Price: decimal.NewFromInt(1)},
		{Name: "Alpha", Category: "parts", Price: decimal.NewFromInt(2)},
		{Name: "Hammer", Category: "tools", Price: decimal.NewFromInt(3)},
	} {
		_, err := f.service.Create(ctx, req)
		require.NoError(t, err)
	}

	parts, err := f.service.List(ctx, catalogapi.ListWidgets{Category: "parts"})
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "Alpha", parts[0].Name)
	assert.Equal(t, "Zeta", parts[1].Name)

	none, err := f.service.List(ctx, catalogapi.ListWidgets{Category: "toys"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestService_Create_DomainError(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), catalogapi.CreateWidget{Name: "Sprocket", Price: decimal.NewFromInt(-1)})

	assert.ErrorIs(t, err, catalogapi.ErrInvalidWidgetPrice)
	assert.Empty(t, f.published)
}

func TestService_Discontinue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.service.Create(ctx, catalogapi.CreateWidget{Name: "Sprocket", Category: "parts", Price: decimal.NewFromInt(4)})
	require.NoError(t, err)

	_, err = f.service.Discontinue(ctx, catalogapi.DiscontinueWidget{WidgetID: id, Reason: "superseded"})
	require.NoError(t, err)

	dto, err := f.service.Get(ctx, catalogapi.GetWidget{WidgetID: id})
	require.NoError(t, err)
	assert.Equal(t, catalogapi.WidgetStatusDiscontinued, dto.Status)
	assert.Equal(t, 2, dto.Version)

	require.Len(t, f.published, 2)
	discontinued, ok := f.published[1].(*catalogapi.WidgetDiscontinued)
	require.True(t, ok)
	assert.Equal(t, id, discontinued.WidgetID)

	_, err = f.service.Discontinue(ctx, catalogapi.DiscontinueWidget{WidgetID: id})
	assert.ErrorIs(t, err, catalogapi.ErrWidgetAlreadyDiscontinued)
}

func TestService_Discontinue_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Discontinue(context.Background(), catalogapi.DiscontinueWidget{WidgetID: uuid.New()})

	assert.ErrorIs(t, err, catalogapi.ErrWidgetNotFound)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestValidators(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, ValidateName(ctx, catalogapi.CreateWidget{Name: "x"}))
	assert.Empty(t, ValidateCategory(ctx, catalogapi.CreateWidget{Category: "x"}))

	failures := append(
		ValidateName(ctx, catalogapi.CreateWidget{Name: "  "}),
		ValidateCategory(ctx, catalogapi.CreateWidget{})...,
	)
	assert.Equal(t, []mediator.ValidationFailure{
		{Field: "name", Rule: "required", Message: "This field is required"},
		{Field: "category", Rule: "required", Message: "This field is required"},
	}, failures)
}
