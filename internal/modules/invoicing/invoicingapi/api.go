// Package invoicingapi is the public surface of the invoicing module.
package invoicingapi

import (
	"context"
	"time"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ModuleName is the name the invoicing module registers under
const ModuleName = "invoicing"

// Capabilities
const (
	Namespace        = "invoices"
	CapabilityCreate = "invoices.create"
	CapabilityIssue  = "invoices.issue"
	CapabilityRead   = "invoices.read"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft  InvoiceStatus = "draft"
	InvoiceStatusIssued InvoiceStatus = "issued"
)

// Domain errors
var (
	ErrInvoiceNotFound      = shared.NewDomainError("NOT_FOUND", "Invoice not found")
	ErrInvoiceNotDraft      = shared.NewDomainError("INVALID_STATE", "Only draft invoices can be changed")
	ErrInvoiceNeedsReview   = shared.NewDomainError("NEEDS_REVIEW", "Invoice must be reviewed before it is issued")
	ErrInvoiceHasNoLines    = shared.NewDomainError("NO_LINES", "Invoice must have at least one line")
	ErrInvalidQuantity      = shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	ErrCustomerNameRequired = shared.NewDomainError("CUSTOMER_REQUIRED", "Customer name is required")
)

// LineInput is one requested invoice line
type LineInput struct {
	WidgetID uuid.UUID `json:"widget_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"gt=0"`
}

// CreateInvoice drafts an invoice for catalog widgets at their current price.
type CreateInvoice struct {
	mediator.Returns[uuid.UUID]
	CustomerName string      `json:"customer_name" validate:"required,max=100"`
	Lines        []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// RequiredCapability implements mediator.Secured
func (CreateInvoice) RequiredCapability() string { return CapabilityCreate }

// IssueInvoice finalizes a draft invoice.
type IssueInvoice struct {
	mediator.Returns[mediator.Void]
	InvoiceID uuid.UUID `json:"invoice_id" validate:"required"`
}

// RequiredCapability implements mediator.Secured
func (IssueInvoice) RequiredCapability() string { return CapabilityIssue }

// GetInvoice reads one invoice.
type GetInvoice struct {
	mediator.Returns[InvoiceDTO]
	InvoiceID uuid.UUID `json:"invoice_id" validate:"required"`
}

// RequiredCapability implements mediator.Secured
func (GetInvoice) RequiredCapability() string { return CapabilityRead }

// LineDTO is the read model of an invoice line
type LineDTO struct {
	WidgetID   uuid.UUID       `json:"widget_id"`
	WidgetName string          `json:"widget_name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Amount     decimal.Decimal `json:"amount"`
}

// InvoiceDTO is the read model of an invoice
type InvoiceDTO struct {
	ID           uuid.UUID       `json:"id"`
	CustomerName string          `json:"customer_name"`
	Status       InvoiceStatus   `json:"status"`
	Lines        []LineDTO       `json:"lines"`
	Total        decimal.Decimal `json:"total"`
	NeedsReview  bool            `json:"needs_review"`
	ReviewReason string          `json:"review_reason,omitempty"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	IssuedAt     *time.Time      `json:"issued_at,omitempty"`
}

// API is what other modules may call on invoicing.
type API interface {
	// GetInvoice returns the invoice or ErrInvoiceNotFound.
	GetInvoice(ctx context.Context, id uuid.UUID) (InvoiceDTO, error)
}
