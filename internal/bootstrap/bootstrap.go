// Package bootstrap assembles the modules, the request pipeline and the unit of
// work into a ready-to-use mediator.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/application/module"
	"github.com/erp/modulith/internal/application/pipeline"
	"github.com/erp/modulith/internal/application/uow"
	"github.com/erp/modulith/internal/domain/shared"
	"github.com/erp/modulith/internal/infrastructure/auth"
	"github.com/erp/modulith/internal/infrastructure/persistence"
	"github.com/erp/modulith/internal/infrastructure/validation"
	"github.com/erp/modulith/internal/modules/catalog"
	"github.com/erp/modulith/internal/modules/catalog/catalogapi"
	"github.com/erp/modulith/internal/modules/invoicing"
	"github.com/erp/modulith/internal/modules/invoicing/invoicingapi"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options configures the application. Zero values select defaults.
type Options struct {
	Logger         *zap.Logger
	Tracer         trace.Tracer
	Meter          metric.Meter
	SlowThreshold  time.Duration
	MaxEventPasses int
	AccessChecker  pipeline.AccessChecker
	// Behaviors replaces the standard pipeline when set.
	Behaviors func(*mediator.Registry) ([]mediator.Behavior, error)
	// Extra registers additional handlers after the modules.
	Extra func(b *mediator.Builder)
}

// App is the assembled application
type App struct {
	Mediator   *mediator.Mediator
	Modules    *module.Registry
	UnitOfWork *persistence.UnitOfWorkFactory
	Catalog    catalogapi.API
	Invoicing  invoicingapi.API

	db *gorm.DB
}

// New builds the application over db. Registration problems of every module are
// reported together.
func New(db *gorm.DB, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.AccessChecker == nil {
		opts.AccessChecker = auth.NewPermissionChecker()
	}

	// The dispatcher publishes through the mediator, which exists only once
	// every module has registered.
	var m *mediator.Mediator
	publisher := shared.EventPublisherFunc(func(ctx context.Context, events ...shared.DomainEvent) error {
		return m.Publish(ctx, events...)
	})
	factory := persistence.NewUnitOfWorkFactory(db, uow.NewEventDispatcher(publisher, opts.MaxEventPasses, log))

	catalogModule := catalog.New(db, factory, log)
	invoicingModule := invoicing.New(db, factory, catalogModule.API(), log)
	modules, err := module.NewRegistry(catalogModule, invoicingModule)
	if err != nil {
		return nil, fmt.Errorf("invalid modules: %w", err)
	}

	b := mediator.NewBuilder()
	modules.Register(b)
	if opts.Extra != nil {
		opts.Extra(b)
	}
	registry, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid registrations: %w", err)
	}

	var behaviors []mediator.Behavior
	if opts.Behaviors != nil {
		behaviors, err = opts.Behaviors(registry)
	} else {
		behaviors, err = pipeline.Standard(registry, pipeline.Options{
			Logger:        log,
			Tracer:        opts.Tracer,
			Meter:         opts.Meter,
			SlowThreshold: opts.SlowThreshold,
			AccessChecker: opts.AccessChecker,
			Validators:    []mediator.Validator{validation.NewStructValidator()},
		})
	}
	if err != nil {
		return nil, err
	}

	m, err = mediator.New(registry, log, behaviors...)
	if err != nil {
		return nil, err
	}

	log.Info("Application assembled",
		zap.Strings("modules", modules.Names()),
		zap.Strings("capabilities", modules.Capabilities()),
		zap.Int("request_types", len(registry.RequestTypes())),
	)
	return &App{
		Mediator:   m,
		Modules:    modules,
		UnitOfWork: factory,
		Catalog:    catalogModule.API(),
		Invoicing:  invoicingModule.API(),
		db:         db,
	}, nil
}

// Migrate creates or updates the tables of every module
func (a *App) Migrate(ctx context.Context) error {
	return a.Modules.Migrate(ctx, a.db)
}
