package handler

import (
	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/interfaces/http/dto"
	"github.com/erp/modulith/internal/modules/catalog/catalogapi"
	"github.com/gin-gonic/gin"
)

// WidgetHandler serves the catalog endpoints
type WidgetHandler struct {
	BaseHandler
}

// NewWidgetHandler creates a WidgetHandler
func NewWidgetHandler(m *mediator.Mediator) *WidgetHandler {
	return &WidgetHandler{BaseHandler: NewBaseHandler(m)}
}

// DiscontinueWidgetRequest is the body of the discontinue endpoint
type DiscontinueWidgetRequest struct {
	Reason string `json:"reason"`
}

// RegisterRoutes registers the widget routes on rg
func (h *WidgetHandler) RegisterRoutes(rg *gin.RouterGroup) {
	widgets := rg.Group("/widgets")
	widgets.POST("", h.Create)
	widgets.GET("", h.List)
	widgets.GET("/:id", h.Get)
	widgets.POST("/:id/discontinue", h.Discontinue)
}

// Create handles POST /widgets
func (h *WidgetHandler) Create(c *gin.Context) {
	var req catalogapi.CreateWidget
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

// Get handles GET /widgets/:id
func (h *WidgetHandler) Get(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	widget, err := mediator.Send(c.Request.Context(), h.mediator, catalogapi.GetWidget{WidgetID: id})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, widget)
}

// List handles GET /widgets?category=
func (h *WidgetHandler) List(c *gin.Context) {
	widgets, err := mediator.Send(c.Request.Context(), h.mediator, catalogapi.ListWidgets{
		Category: c.Query("category"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, widgets)
}

// Discontinue handles POST /widgets/:id/discontinue
func (h *WidgetHandler) Discontinue(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var body DiscontinueWidgetRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &body) {
		return
	}
	_, err := mediator.Send(c.Request.Context(), h.mediator, catalogapi.DiscontinueWidget{
		WidgetID: id,
		Reason:   body.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
