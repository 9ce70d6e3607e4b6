// Package app implements the invoicing request and notification handlers.
package app

import (
	"context"
	"fmt"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/application/uow"
	"github.com/erp/modulith/internal/infrastructure/logger"
	"github.com/erp/modulith/internal/modules/catalog/catalogapi"
	"github.com/erp/modulith/internal/modules/invoicing/internal/domain"
	"github.com/erp/modulith/internal/modules/invoicing/internal/store"
	"github.com/erp/modulith/internal/modules/invoicing/invoicingapi"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles invoicing requests and serves invoicingapi.API
type Service struct {
	invoices *store.InvoiceStore
	catalog  catalogapi.API
	uow      uow.Factory
	logger   *zap.Logger
}

// NewService creates a new invoicing service
func NewService(invoices *store.InvoiceStore, catalog catalogapi.API, factory uow.Factory, log *zap.Logger) *Service {
	return &Service{invoices: invoices, catalog: catalog, uow: factory, logger: log}
}

// Create handles invoicingapi.CreateInvoice
func (s *Service) Create(ctx context.Context, req invoicingapi.CreateInvoice) (uuid.UUID, error) {
	lines := make([]domain.Line, 0, len(req.Lines))
	for _, in := range req.Lines {
		widget, err := s.catalog.GetWidget(ctx, in.WidgetID)
		if err != nil {
			return uuid.Nil, err
		}
		if !widget.IsActive() {
			return uuid.Nil, catalogapi.ErrWidgetDiscontinued
		}
		lines = append(lines, domain.Line{
			WidgetID:   widget.ID,
			WidgetName: widget.Name,
			Quantity:   in.Quantity,
			UnitPrice:  widget.Price,
		})
	}

	inv, err := domain.NewInvoice(req.CustomerName, lines)
	if err != nil {
		return uuid.Nil, err
	}
	err = uow.Run(ctx, s.uow, func(ctx context.Context, u uow.UnitOfWork) error {
		return u.Attach(inv)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return inv.ID, nil
}

// Issue handles invoicingapi.IssueInvoice
func (s *Service) Issue(ctx context.Context, req invoicingapi.IssueInvoice) (mediator.Void, error) {
	err := uow.Run(ctx, s.uow, func(ctx context.Context, u uow.UnitOfWork) error {
		inv, err := s.invoices.FindByID(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		if err := inv.Issue(); err != nil {
			return err
		}
		return u.Attach(inv)
	})
	return mediator.Void{}, err
}

// Get handles invoicingapi.GetInvoice
func (s *Service) Get(ctx context.Context, req invoicingapi.GetInvoice) (invoicingapi.InvoiceDTO, error) {
	return s.GetInvoice(ctx, req.InvoiceID)
}

// GetInvoice implements invoicingapi.API
func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (invoicingapi.InvoiceDTO, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return invoicingapi.InvoiceDTO{}, err
	}
	return inv.ToDTO(), nil
}

// OnWidgetDiscontinued flags every draft invoice containing the widget for
// review. It runs inside the unit of work that discontinued the widget.
func (s *Service) OnWidgetDiscontinued(ctx context.Context, event *catalogapi.WidgetDiscontinued) error {
	return uow.Run(ctx, s.uow, func(ctx context.Context, u uow.UnitOfWork) error {
		drafts, err := s.invoices.FindDraftsContainingWidget(ctx, event.WidgetID)
		if err != nil {
			return err
		}
		reason := fmt.Sprintf("widget %q was discontinued", event.Name)
		flagged := 0
		for _, inv := range drafts {
			if !inv.FlagForReview(event.WidgetID, reason) {
				continue
			}
			if err := u.Attach(inv); err != nil {
				return err
			}
			flagged++
		}
		if flagged > 0 {
			logger.WithLogger(ctx, s.logger).Info("Invoices flagged for review",
				zap.String("widget_id", event.WidgetID.String()),
				zap.Int("count", flagged),
			)
		}
		return nil
	})
}

var _ invoicingapi.API = (*Service)(nil)
