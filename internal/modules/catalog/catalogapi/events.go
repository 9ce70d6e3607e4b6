package catalogapi

import (
	"github.com/erp/modulith/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeWidget = "Widget"

// Event type constants
const (
	EventTypeWidgetCreated      = "WidgetCreated"
	EventTypeWidgetDiscontinued = "WidgetDiscontinued"
)

// WidgetCreated is published when a widget is added to the catalog
type WidgetCreated struct {
	shared.BaseDomainEvent
	WidgetID uuid.UUID       `json:"widget_id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}

// NewWidgetCreated creates a WidgetCreated event
func NewWidgetCreated(id uuid.UUID, name, category string, price decimal.Decimal) *WidgetCreated {
	return &WidgetCreated{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWidgetCreated, AggregateTypeWidget, id),
		WidgetID:        id,
		Name:            name,
		Category:        category,
		Price:           price,
	}
}

// WidgetDiscontinued is published when a widget is withdrawn from sale
type WidgetDiscontinued struct {
	shared.BaseDomainEvent
	WidgetID uuid.UUID `json:"widget_id"`
	Name     string    `json:"name"`
	Reason   string    `json:"reason,omitempty"`
}

// NewWidgetDiscontinued creates a WidgetDiscontinued event
func NewWidgetDiscontinued(id uuid.UUID, name, reason string) *WidgetDiscontinued {
	return &WidgetDiscontinued{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWidgetDiscontinued, AggregateTypeWidget, id),
		WidgetID:        id,
		Name:            name,
		Reason:          reason,
	}
}
