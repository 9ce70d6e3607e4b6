package invoicingapi

import (
	"github.com/erp/modulith/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeInvoice = "Invoice"

// Event type constants
const (
	EventTypeInvoiceCreated          = "InvoiceCreated"
	EventTypeInvoiceIssued           = "InvoiceIssued"
	EventTypeInvoiceFlaggedForReview = "InvoiceFlaggedForReview"
)

// InvoiceCreated is published when a draft invoice is created
type InvoiceCreated struct {
	shared.BaseDomainEvent
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
}

// NewInvoiceCreated creates an InvoiceCreated event
func NewInvoiceCreated(id uuid.UUID, customer string, total decimal.Decimal) *InvoiceCreated {
	return &InvoiceCreated{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, id),
		InvoiceID:       id,
		CustomerName:    customer,
		Total:           total,
	}
}

// InvoiceIssued is published when an invoice is issued
type InvoiceIssued struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Total     decimal.Decimal `json:"total"`
}

// NewInvoiceIssued creates an InvoiceIssued event
func NewInvoiceIssued(id uuid.UUID, total decimal.Decimal) *InvoiceIssued {
	return &InvoiceIssued{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceIssued, AggregateTypeInvoice, id),
		InvoiceID:       id,
		Total:           total,
	}
}

// InvoiceFlaggedForReview is published when a draft invoice needs review
// because one of its widgets changed
type InvoiceFlaggedForReview struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
	WidgetID  uuid.UUID `json:"widget_id"`
	Reason    string    `json:"reason"`
}

// NewInvoiceFlaggedForReview creates an InvoiceFlaggedForReview event
func NewInvoiceFlaggedForReview(id, widgetID uuid.UUID, reason string) *InvoiceFlaggedForReview {
	return &InvoiceFlaggedForReview{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceFlaggedForReview, AggregateTypeInvoice, id),
		InvoiceID:       id,
		WidgetID:        widgetID,
		Reason:          reason,
	}
}
