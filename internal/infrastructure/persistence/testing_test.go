package persistence

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/application/uow"
	"github.com/erp/modulith/internal/domain/shared"
	"github.com/erp/modulith/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type gadget struct {
	shared.BaseAggregateRoot
	Name string
}

func (gadget) TableName() string { return "test_gadgets" }

func newGadget(name string) *gadget {
	return &gadget{BaseAggregateRoot: shared.NewBaseAggregateRoot(), Name: name}
}

type gadgetRenamed struct {
	shared.BaseDomainEvent
	Name string
}

func (g *gadget) Rename(name string) {
	g.Name = name
	g.AddDomainEvent(&gadgetRenamed{
		BaseDomainEvent: shared.NewBaseDomainEvent("GadgetRenamed", "gadget", g.ID),
		Name:            name,
	})
}

type auditEntry struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	GadgetID uuid.UUID `gorm:"type:uuid"`
	Note     string
}

func (auditEntry) TableName() string { return "test_audit_entries" }

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.DB.AutoMigrate(&gadget{}, &auditEntry{}))
	return db
}

func newTestFactory(t *testing.T, db *Database, subscribe func(b *mediator.Builder)) *UnitOfWorkFactory {
	t.Helper()
	b := mediator.NewBuilder()
	subscribe(b)
	registry, err := b.Build()
	require.NoError(t, err)
	m, err := mediator.New(registry, zap.NewNop())
	require.NoError(t, err)
	return NewUnitOfWorkFactory(db.DB, uow.NewEventDispatcher(m, uow.DefaultMaxPasses, zap.NewNop()))
}

func loadGadget(t *testing.T, db *Database, id uuid.UUID) gadget {
	t.Helper()
	var g gadget
	require.NoError(t, Conn(context.Background(), db.DB).First(&g, "id = ?", id).Error)
	return g
}
