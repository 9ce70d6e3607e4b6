package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// InstrumentGorm registers the otelgorm plugin so every statement gets a span
// under the caller's span. Query variables are never recorded.
func InstrumentGorm(db *gorm.DB, tp trace.TracerProvider, dbSystem string) error {
	return db.Use(otelgorm.NewPlugin(
		otelgorm.WithTracerProvider(tp),
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	))
}
