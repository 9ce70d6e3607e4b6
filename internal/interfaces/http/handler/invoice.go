package handler

import (
	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/interfaces/http/dto"
	"github.com/erp/modulith/internal/modules/invoicing/invoicingapi"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler serves the invoicing endpoints
type InvoiceHandler struct {
	BaseHandler
}

// NewInvoiceHandler creates an InvoiceHandler
func NewInvoiceHandler(m *mediator.Mediator) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: NewBaseHandler(m)}
}

// RegisterRoutes registers the invoice routes on rg
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	invoices.POST("", h.Create)
	invoices.GET("/:id", h.Get)
	invoices.POST("/:id/issue", h.Issue)
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req invoicingapi.CreateInvoice
	if !h.BindJSON(c, &req) {
		return
	}
	id, err := mediator.Send(c.Request.Context(), h.mediator, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.IDResponse{ID: id.String()})
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	invoice, err := mediator.Send(c.Request.Context(), h.mediator, invoicingapi.GetInvoice{InvoiceID: id})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Issue handles POST /invoices/:id/issue
func (h *InvoiceHandler) Issue(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if _, err := mediator.Send(c.Request.Context(), h.mediator, invoicingapi.IssueInvoice{InvoiceID: id}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
