// Package domain holds the invoicing aggregates.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/modulith/internal/domain/shared"
	"github.com/erp/modulith/internal/modules/invoicing/invoicingapi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is an invoice line. The widget name and unit price are copied from the
// catalog when the line is created.
type Line struct {
	WidgetID   uuid.UUID       `json:"widget_id"`
	WidgetName string          `json:"widget_name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// Amount returns quantity times unit price
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Invoice is a customer invoice
type Invoice struct {
	shared.BaseAggregateRoot
	CustomerName string                     `gorm:"type:varchar(100);not null"`
	Status       invoicingapi.InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	Lines        []Line                     `gorm:"type:text;serializer:json"`
	Total        decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	NeedsReview  bool                       `gorm:"not null;default:false"`
	ReviewReason string                     `gorm:"type:varchar(200)"`
	IssuedAt     *time.Time
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoicing_invoices"
}

// NewInvoice creates a draft invoice
func NewInvoice(customerName string, lines []Line) (*Invoice, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, invoicingapi.ErrCustomerNameRequired
	}
	if len(lines) == 0 {
		return nil, invoicingapi.ErrInvoiceHasNoLines
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, invoicingapi.ErrInvalidQuantity
		}
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerName:      customerName,
		Status:            invoicingapi.InvoiceStatusDraft,
		Lines:             append([]Line(nil), lines...),
	}
	inv.Total = inv.computeTotal()
	inv.AddDomainEvent(invoicingapi.NewInvoiceCreated(inv.ID, inv.CustomerName, inv.Total))
	return inv, nil
}

func (i *Invoice) computeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range i.Lines {
		total = total.Add(l.Amount())
	}
	return total
}

// IsDraft returns true if the invoice can still be changed
func (i *Invoice) IsDraft() bool {
	return i.Status == invoicingapi.InvoiceStatusDraft
}

// ContainsWidget reports whether any line is for the widget
func (i *Invoice) ContainsWidget(widgetID uuid.UUID) bool {
	for _, l := range i.Lines {
		if l.WidgetID == widgetID {
			return true
		}
	}
	return false
}

// FlagForReview marks a draft invoice containing the widget as needing review.
// It returns false, and changes nothing, when the invoice is not a draft, does
// not contain the widget or is already flagged.
func (i *Invoice) FlagForReview(widgetID uuid.UUID, reason string) bool {
	if !i.IsDraft() || i.NeedsReview || !i.ContainsWidget(widgetID) {
		return false
	}

	i.NeedsReview = true
	i.ReviewReason = reason
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(invoicingapi.NewInvoiceFlaggedForReview(i.ID, widgetID, reason))
	return true
}

// Issue finalizes the invoice
func (i *Invoice) Issue() error {
	if !i.IsDraft() {
		return invoicingapi.ErrInvoiceNotDraft
	}
	if i.NeedsReview {
		return shared.NewDomainError(invoicingapi.ErrInvoiceNeedsReview.Code,
			fmt.Sprintf("%s: %s", invoicingapi.ErrInvoiceNeedsReview.Message, i.ReviewReason))
	}

	now := time.Now()
	i.Status = invoicingapi.InvoiceStatusIssued
	i.IssuedAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()

	i.AddDomainEvent(invoicingapi.NewInvoiceIssued(i.ID, i.Total))
	return nil
}

// ToDTO converts the invoice to its read model
func (i *Invoice) ToDTO() invoicingapi.InvoiceDTO {
	lines := make([]invoicingapi.LineDTO, 0, len(i.Lines))
	for _, l := range i.Lines {
		lines = append(lines, invoicingapi.LineDTO{
			WidgetID:   l.WidgetID,
			WidgetName: l.WidgetName,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			Amount:     l.Amount(),
		})
	}
	return invoicingapi.InvoiceDTO{
		ID:           i.ID,
		CustomerName: i.CustomerName,
		Status:       i.Status,
		Lines:        lines,
		Total:        i.Total,
		NeedsReview:  i.NeedsReview,
		ReviewReason: i.ReviewReason,
		Version:      i.Version,
		CreatedAt:    i.CreatedAt,
		IssuedAt:     i.IssuedAt,
	}
}
