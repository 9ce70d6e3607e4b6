// Package catalogapi is the public surface of the catalog module: its requests,
// read models, published events and the API other modules call.
package catalogapi

import (
	"context"
	"time"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ModuleName is the name the catalog module registers under
const ModuleName = "catalog"

// Capabilities
const (
	Namespace             = "widgets"
	CapabilityCreate      = "widgets.create"
	CapabilityDiscontinue = "widgets.discontinue"
	CapabilityRead        = "widgets.read"
)

// WidgetStatus represents the lifecycle status of a widget
type WidgetStatus string

const (
	WidgetStatusActive       WidgetStatus = "active"
	WidgetStatusDiscontinued WidgetStatus = "discontinued"
)

// Domain errors
var (
	ErrWidgetNotFound            = shared.NewDomainError("NOT_FOUND", "Widget not found")
	ErrWidgetDiscontinued        = shared.NewDomainError("WIDGET_DISCONTINUED", "Widget is discontinued")
	ErrInvalidWidgetPrice        = shared.NewDomainError("INVALID_PRICE", "Widget price cannot be negative")
	ErrWidgetNameRequired        = shared.NewDomainError("NAME_REQUIRED", "Widget name is required")
	ErrWidgetAlreadyDiscontinued = shared.NewDomainError("ALREADY_DISCONTINUED", "Widget is already discontinued")
)

// CreateWidget adds a widget to the catalog and returns its id.
type CreateWidget struct {
	mediator.Returns[uuid.UUID]
	Name     string          `json:"name" validate:"max=100"`
	Category string          `json:"category" validate:"max=50"`
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
}

// RequiredCapability implements mediator.Secured
func (CreateWidget) RequiredCapability() string { return CapabilityCreate }

// DiscontinueWidget withdraws a widget from sale.
type DiscontinueWidget struct {
	mediator.Returns[mediator.Void]
	WidgetID uuid.UUID `json:"widget_id" validate:"required"`
	Reason   string    `json:"reason" validate:"max=200"`
}

// RequiredCapability implements mediator.Secured
func (DiscontinueWidget) RequiredCapability() string { return CapabilityDiscontinue }

// GetWidget reads one widget.
type GetWidget struct {
	mediator.Returns[WidgetDTO]
	WidgetID uuid.UUID `json:"widget_id" validate:"required"`
}

// RequiredCapability implements mediator.Secured
func (GetWidget) RequiredCapability() string { return CapabilityRead }

// ListWidgets reads the widgets of one category, ordered by name.
type ListWidgets struct {
	mediator.Returns[[]WidgetDTO]
	Category string `json:"category" validate:"required,max=50"`
}

// RequiredCapability implements mediator.Secured
func (ListWidgets) RequiredCapability() string { return CapabilityRead }

// WidgetDTO is the read model of a widget
type WidgetDTO struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Status    WidgetStatus    `json:"status"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsActive reports whether the widget can still be sold
func (w WidgetDTO) IsActive() bool {
	return w.Status == WidgetStatusActive
}

// API is what other modules may call on the catalog.
type API interface {
	// GetWidget returns the widget or ErrWidgetNotFound.
	GetWidget(ctx context.Context, id uuid.UUID) (WidgetDTO, error)
}
