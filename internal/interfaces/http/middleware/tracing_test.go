package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/modulith/internal/infrastructure/auth"
	"github.com/erp/modulith/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestTracing_RecordsRouteSpanWithCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	userID := uuid.New()

	router := gin.New()
	router.Use(
		logger.GinMiddleware(zap.NewNop()),
		Tracing(TracingConfig{ServiceName: "modulith-test", TracerProvider: provider}),
		func(c *gin.Context) {
			ctx := auth.WithIdentity(c.Request.Context(), auth.Identity{UserID: userID})
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		},
		SpanAttributes(),
	)
	router.GET("/widgets/:id", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/widgets/42", nil)
	req.Header.Set(logger.CorrelationIDHeader, "corr-5")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Contains(t, span.Name(), "/widgets/:id")
	assert.Contains(t, span.Attributes(), attribute.String("correlation_id", "corr-5"))
	assert.Contains(t, span.Attributes(), attribute.String("caller_id", userID.String()))
	assert.Equal(t, "Error", span.Status().Code.String())
}
