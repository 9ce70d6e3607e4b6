// Package catalog is the catalog module: widgets and their lifecycle.
package catalog

import (
	"context"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/application/module"
	"github.com/erp/modulith/internal/application/uow"
	"github.com/erp/modulith/internal/modules/catalog/catalogapi"
	"github.com/erp/modulith/internal/modules/catalog/internal/app"
	"github.com/erp/modulith/internal/modules/catalog/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module wires the catalog into the mediator
type Module struct {
	widgets *store.WidgetStore
	service *app.Service
}

// New creates the catalog module
func New(db *gorm.DB, factory uow.Factory, log *zap.Logger) *Module {
	if log == nil {
		log = zap.NewNop()
	}
	widgets := store.NewWidgetStore(db)
	return &Module{
		widgets: widgets,
		service: app.NewService(widgets, factory, log.Named(catalogapi.ModuleName)),
	}
}

// API returns the catalog API for other modules
func (m *Module) API() catalogapi.API {
	return m.service
}

// Descriptor implements module.Module
func (m *Module) Descriptor() module.Descriptor {
	return module.Descriptor{
		Name:       catalogapi.ModuleName,
		Namespaces: []string{catalogapi.Namespace},
		Capabilities: []string{
			catalogapi.CapabilityCreate,
			catalogapi.CapabilityDiscontinue,
			catalogapi.CapabilityRead,
		},
		Requests: []any{
			catalogapi.CreateWidget{},
			catalogapi.DiscontinueWidget{},
			catalogapi.GetWidget{},
			catalogapi.ListWidgets{},
		},
	}
}

// Register implements module.Module
func (m *Module) Register(b *mediator.Builder) {
	mediator.RegisterHandler(b, m.service.Create)
	mediator.RegisterHandler(b, m.service.Discontinue)
	mediator.RegisterHandler(b, m.service.Get)
	mediator.RegisterHandler(b, m.service.List)

	mediator.RegisterValidator(b, app.ValidateName)
	mediator.RegisterValidator(b, app.ValidateCategory)
}

// Migrate implements module.Module
func (m *Module) Migrate(ctx context.Context, db *gorm.DB) error {
	return m.widgets.Migrate(ctx, db)
}

var _ module.Module = (*Module)(nil)
