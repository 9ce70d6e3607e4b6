// Package handler adapts HTTP requests onto mediator requests.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/domain/shared"
	"github.com/erp/modulith/internal/infrastructure/auth"
	"github.com/erp/modulith/internal/infrastructure/logger"
	"github.com/erp/modulith/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BaseHandler provides common handler utilities
type BaseHandler struct {
	mediator *mediator.Mediator
}

// NewBaseHandler creates a BaseHandler sending requests through m
func NewBaseHandler(m *mediator.Mediator) BaseHandler {
	return BaseHandler{mediator: m}
}

func correlationID(c *gin.Context) string {
	return logger.CorrelationID(c.Request.Context())
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response, deriving the status code from the error code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, correlationID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// PathID parses a uuid path parameter, answering 400 when it is malformed
func (h *BaseHandler) PathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON decodes the request body into target, answering 400 on failure
func (h *BaseHandler) BindJSON(c *gin.Context, target any) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.Error(c, dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size")
			return false
		}
		h.Error(c, dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
		return false
	}
	return true
}

// HandleError converts a mediator failure into an HTTP response.
// Infrastructure and configuration failures only expose the correlation id.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	corrID := correlationID(c)

	var (
		validationErr *mediator.ValidationError
		authzErr      *mediator.AuthorizationError
		configErr     *mediator.ConfigurationError
		infraErr      *mediator.InfrastructureError
	)
	switch {
	case errors.As(err, &validationErr):
		details := make([]dto.ValidationDetail, 0, len(validationErr.Failures))
		for _, f := range validationErr.Failures {
			details = append(details, dto.ValidationDetail{Field: f.Field, Rule: f.Rule, Message: f.Message})
		}
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", corrID, details))
	case errors.As(err, &authzErr):
		if identity, ok := auth.IdentityFromContext(c.Request.Context()); !ok || identity.IsAnonymous() {
			h.Error(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		h.Error(c, dto.ErrCodeForbidden, "Missing capability "+authzErr.Capability)
	case errors.As(err, &configErr):
		h.Error(c, dto.ErrCodeConfiguration, "The request could not be routed")
	case errors.As(err, &infraErr):
		if infraErr.CorrelationID != "" {
			corrID = infraErr.CorrelationID
		}
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, "An unexpected error occurred", corrID))
	case errors.Is(err, context.Canceled):
		h.Error(c, dto.ErrCodeCanceled, "Request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		h.Error(c, dto.ErrCodeTimeout, "Request timed out")
	default:
		if domainErr, ok := shared.AsDomainError(err); ok {
			h.Error(c, dto.NormalizeErrorCode(domainErr.Code), domainErr.Error())
			return
		}
		h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}
