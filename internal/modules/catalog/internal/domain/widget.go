// Package domain holds the catalog aggregates.
package domain

import (
	"strings"
	"time"

	"github.com/erp/modulith/internal/domain/shared"
	"github.com/erp/modulith/internal/modules/catalog/catalogapi"
	"github.com/shopspring/decimal"
)

// Widget is a sellable catalog item
type Widget struct {
	shared.BaseAggregateRoot
	Name               string                  `gorm:"type:varchar(100);not null"`
	Category           string                  `gorm:"type:varchar(50);not null;index"`
	Price              decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Status             catalogapi.WidgetStatus `gorm:"type:varchar(20);not null;default:'active'"`
	DiscontinuedReason string                  `gorm:"type:varchar(200)"`
	DiscontinuedAt     *time.Time
}

// TableName returns the table name for GORM
func (Widget) TableName() string {
	return "catalog_widgets"
}

// NewWidget creates an active widget
func NewWidget(name, category string, price decimal.Decimal) (*Widget, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, catalogapi.ErrWidgetNameRequired
	}
	if price.IsNegative() {
		return nil, catalogapi.ErrInvalidWidgetPrice
	}

	w := &Widget{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Category:          strings.TrimSpace(category),
		Price:             price,
		Status:            catalogapi.WidgetStatusActive,
	}
	w.AddDomainEvent(catalogapi.NewWidgetCreated(w.ID, w.Name, w.Category, w.Price))
	return w, nil
}

// Discontinue withdraws the widget from sale
func (w *Widget) Discontinue(reason string) error {
	if w.Status == catalogapi.WidgetStatusDiscontinued {
		return catalogapi.ErrWidgetAlreadyDiscontinued
	}

	now := time.Now()
	w.Status = catalogapi.WidgetStatusDiscontinued
	w.DiscontinuedReason = reason
	w.DiscontinuedAt = &now
	w.UpdatedAt = now
	w.IncrementVersion()

	w.AddDomainEvent(catalogapi.NewWidgetDiscontinued(w.ID, w.Name, reason))
	return nil
}

// IsActive returns true if the widget can be sold
func (w *Widget) IsActive() bool {
	return w.Status == catalogapi.WidgetStatusActive
}

// ToDTO converts the widget to its read model
func (w *Widget) ToDTO() catalogapi.WidgetDTO {
	return catalogapi.WidgetDTO{
		ID:        w.ID,
		Name:      w.Name,
		Category:  w.Category,
		Price:     w.Price,
		Status:    w.Status,
		Version:   w.Version,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
