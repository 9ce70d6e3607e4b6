// Package app implements the catalog request handlers.
package app

import (
	"context"
	"strings"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/application/uow"
	"github.com/erp/modulith/internal/infrastructure/logger"
	"github.com/erp/modulith/internal/modules/catalog/catalogapi"
	"github.com/erp/modulith/internal/modules/catalog/internal/domain"
	"github.com/erp/modulith/internal/modules/catalog/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles catalog requests and serves catalogapi.API
type Service struct {
	widgets *store.WidgetStore
	uow     uow.Factory
	logger  *zap.Logger
}

// NewService creates a new catalog service
func NewService(widgets *store.WidgetStore, factory uow.Factory, log *zap.Logger) *Service {
	return &Service{widgets: widgets, uow: factory, logger: log}
}

// Create handles catalogapi.CreateWidget
func (s *Service) Create(ctx context.Context, req catalogapi.CreateWidget) (uuid.UUID, error) {
	w, err := domain.NewWidget(req.Name, req.Category, req.Price)
	if err != nil {
		return uuid.Nil, err
	}

	err = uow.Run(ctx, s.uow, func(ctx context.Context, u uow.UnitOfWork) error {
		return u.Attach(w)
	})
	if err != nil {
		return uuid.Nil, err
	}

	logger.WithLogger(ctx, s.logger).Info("Widget created",
		zap.String("widget_id", w.ID.String()),
		zap.String("category", w.Category),
	)
	return w.ID, nil
}

// Discontinue handles catalogapi.DiscontinueWidget
func (s *Service) Discontinue(ctx context.Context, req catalogapi.DiscontinueWidget) (mediator.Void, error) {
	err := uow.Run(ctx, s.uow, func(ctx context.Context, u uow.UnitOfWork) error {
		w, err := s.widgets.FindByID(ctx, req.WidgetID)
		if err != nil {
			return err
		}
		if err := w.Discontinue(req.Reason); err != nil {
			return err
		}
		return u.Attach(w)
	})
	return mediator.Void{}, err
}

// Get handles catalogapi.GetWidget
func (s *Service) Get(ctx context.Context, req catalogapi.GetWidget) (catalogapi.WidgetDTO, error) {
	return s.GetWidget(ctx, req.WidgetID)
}

// GetWidget implements catalogapi.API
func (s *Service) GetWidget(ctx context.Context, id uuid.UUID) (catalogapi.WidgetDTO, error) {
	w, err := s.widgets.FindByID(ctx, id)
	if err != nil {
		return catalogapi.WidgetDTO{}, err
	}
	return w.ToDTO(), nil
}

// List handles catalogapi.ListWidgets
func (s *Service) List(ctx context.Context, req catalogapi.ListWidgets) ([]catalogapi.WidgetDTO, error) {
	widgets, err := s.widgets.FindByCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}
	dtos := make([]catalogapi.WidgetDTO, 0, len(widgets))
	for i := range widgets {
		dtos = append(dtos, widgets[i].ToDTO())
	}
	return dtos, nil
}

// ValidateName requires a non-blank widget name
func ValidateName(ctx context.Context, req catalogapi.CreateWidget) []mediator.ValidationFailure {
	if strings.TrimSpace(req.Name) == "" {
		return []mediator.ValidationFailure{{Field: "name", Rule: "required", Message: "This field is required"}}
	}
	return nil
}

// ValidateCategory requires a non-blank widget category
func ValidateCategory(ctx context.Context, req catalogapi.CreateWidget) []mediator.ValidationFailure {
	if strings.TrimSpace(req.Category) == "" {
		return []mediator.ValidationFailure{{Field: "category", Rule: "required", Message: "This field is required"}}
	}
	return nil
}

var _ catalogapi.API = (*Service)(nil)
