// Package invoicing is the invoicing module. It reads widgets only through
// catalogapi and reacts to catalog events.
package invoicing

import (
	"context"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/application/module"
	"github.com/erp/modulith/internal/application/uow"
	"github.com/erp/modulith/internal/modules/catalog/catalogapi"
	"github.com/erp/modulith/internal/modules/invoicing/internal/app"
	"github.com/erp/modulith/internal/modules/invoicing/internal/store"
	"github.com/erp/modulith/internal/modules/invoicing/invoicingapi"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module wires invoicing into the mediator
type Module struct {
	invoices *store.InvoiceStore
	service  *app.Service
}

// New creates the invoicing module
func New(db *gorm.DB, factory uow.Factory, catalog catalogapi.API, log *zap.Logger) *Module {
	if log == nil {
		log = zap.NewNop()
	}
	invoices := store.NewInvoiceStore(db)
	return &Module{
		invoices: invoices,
		service:  app.NewService(invoices, catalog, factory, log.Named(invoicingapi.ModuleName)),
	}
}

// API returns the invoicing API for other modules
func (m *Module) API() invoicingapi.API {
	return m.service
}

// Descriptor implements module.Module
func (m *Module) Descriptor() module.Descriptor {
	return module.Descriptor{
		Name:       invoicingapi.ModuleName,
		Namespaces: []string{invoicingapi.Namespace},
		Capabilities: []string{
			invoicingapi.CapabilityCreate,
			invoicingapi.CapabilityIssue,
			invoicingapi.CapabilityRead,
		},
		Requests: []any{
			invoicingapi.CreateInvoice{},
			invoicingapi.IssueInvoice{},
			invoicingapi.GetInvoice{},
		},
	}
}

// Register implements module.Module
func (m *Module) Register(b *mediator.Builder) {
	mediator.RegisterHandler(b, m.service.Create)
	mediator.RegisterHandler(b, m.service.Issue)
	mediator.RegisterHandler(b, m.service.Get)

	mediator.RegisterNotificationHandler(b, catalogapi.EventTypeWidgetDiscontinued, m.service.OnWidgetDiscontinued)
}

// Migrate implements module.Module
func (m *Module) Migrate(ctx context.Context, db *gorm.DB) error {
	return m.invoices.Migrate(ctx, db)
}

var _ module.Module = (*Module)(nil)
