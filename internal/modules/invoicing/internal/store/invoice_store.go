// Package store reads invoicing aggregates. Writes go through the unit of work,
// and an invoice the unit of work in ctx already tracks is returned as tracked.
package store

import (
	"context"
	"errors"

	"github.com/erp/modulith/internal/application/uow"
	"github.com/erp/modulith/internal/infrastructure/persistence"
	"github.com/erp/modulith/internal/modules/invoicing/internal/domain"
	"github.com/erp/modulith/internal/modules/invoicing/invoicingapi"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceStore loads invoices, inside the unit of work of ctx when there is one
type InvoiceStore struct {
	db *gorm.DB
}

// NewInvoiceStore creates a new InvoiceStore
func NewInvoiceStore(db *gorm.DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

// FindByID finds an invoice by its ID
func (s *InvoiceStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := persistence.Conn(ctx, s.db).First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoicingapi.ErrInvoiceNotFound
		}
		return nil, err
	}
	return uow.Resolve(ctx, &inv), nil
}

// FindDraftsContainingWidget returns the draft invoices with a line for the widget
func (s *InvoiceStore) FindDraftsContainingWidget(ctx context.Context, widgetID uuid.UUID) ([]*domain.Invoice, error) {
	var candidates []*domain.Invoice
	// Lines are stored as JSON text; the LIKE narrows, ContainsWidget decides.
	err := persistence.Conn(ctx, s.db).
		Where("status = ? AND lines LIKE ?", invoicingapi.InvoiceStatusDraft, "%"+widgetID.String()+"%").
		Order("created_at ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	drafts := candidates[:0]
	for _, inv := range candidates {
		if inv.ContainsWidget(widgetID) {
			drafts = append(drafts, uow.Resolve(ctx, inv))
		}
	}
	return drafts, nil
}

// Migrate creates or updates the invoicing tables
func (s *InvoiceStore) Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(&domain.Invoice{})
}
