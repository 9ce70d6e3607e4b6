package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/domain/shared"
	"github.com/erp/modulith/internal/infrastructure/auth"
	"github.com/erp/modulith/internal/infrastructure/config"
	"github.com/erp/modulith/internal/infrastructure/logger"
	"github.com/erp/modulith/internal/infrastructure/persistence"
	"github.com/erp/modulith/internal/modules/catalog/catalogapi"
	"github.com/erp/modulith/internal/modules/invoicing/invoicingapi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type slowProbe struct {
	mediator.Returns[mediator.Void]
}

type harness struct {
	app  *App
	logs *observer.ObservedLogs
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         "file:" + name + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	opts.Logger = zap.New(core)
	app, err := New(db.DB, opts)
	require.NoError(t, err)
	require.NoError(t, app.Migrate(context.Background()))
	return &harness{app: app, logs: logs}
}

func caller(permissions ...string) context.Context {
	ctx := auth.WithIdentity(context.Background(), auth.Identity{
		UserID:      uuid.New(),
		Username:    "alice",
		Permissions: permissions,
	})
	return logger.WithCorrelationID(ctx, "corr-"+uuid.NewString()[:8])
}

func (h *harness) createWidget(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id, err := mediator.Send(caller("widgets.*"), h.app.Mediator, catalogapi.CreateWidget{
		Name: name, Category: "parts", Price: decimal.RequireFromString("4.20"),
	})
	require.NoError(t, err)
	return id
}

func (h *harness) createInvoice(t *testing.T, widgetIDs ...uuid.UUID) uuid.UUID {
	t.Helper()
	lines := make([]invoicingapi.LineInput, 0, len(widgetIDs))
	for _, id := range widgetIDs {
		lines = append(lines, invoicingapi.LineInput{WidgetID: id, Quantity: 1})
	}
	id, err := mediator.Send(caller("invoices.create"), h.app.Mediator, invoicingapi.CreateInvoice{
		CustomerName: "ACME", Lines: lines,
	})
	require.NoError(t, err)
	return id
}

func TestNew_RegistersEveryModule(t *testing.T) {
	h := newHarness(t, Options{})

	assert.Equal(t, []string{"catalog", "invoicing"}, h.app.Modules.Names())
	assert.ElementsMatch(t, []string{
		"catalogapi.CreateWidget", "catalogapi.DiscontinueWidget", "catalogapi.GetWidget", "catalogapi.ListWidgets",
		"invoicingapi.CreateInvoice", "invoicingapi.IssueInvoice", "invoicingapi.GetInvoice",
	}, h.app.Mediator.Registry().RequestTypes())

	assembled := h.logs.FilterMessage("Application assembled").All()
	require.Len(t, assembled, 1)
	assert.Equal(t, []any{"invoices.create", "invoices.issue", "invoices.read", "widgets.create", "widgets.discontinue", "widgets.read"},
		assembled[0].ContextMap()["capabilities"])
}

func TestNew_DuplicateHandlerFailsAtStartup(t *testing.T) {
	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", MaxOpenConns: 1, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	_, err = New(db.DB, Options{Extra: func(b *mediator.Builder) {
		mediator.RegisterHandler(b, func(ctx context.Context, req catalogapi.GetWidget) (catalogapi.WidgetDTO, error) {
			return catalogapi.WidgetDTO{}, nil
		})
	}})

	var ce *mediator.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, mediator.ErrDuplicateHandler)
}

func TestCreateWidget_LogsAroundTheHandler(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := caller("widgets.create", "widgets.read")

	id, err := mediator.Send(ctx, h.app.Mediator, catalogapi.CreateWidget{
		Name: "Sprocket", Category: "parts", Price: decimal.NewFromInt(3),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	dto, err := mediator.Send(ctx, h.app.Mediator, catalogapi.GetWidget{WidgetID: id})
	require.NoError(t, err)
	assert.Equal(t, "Sprocket", dto.Name)

	handling := h.logs.FilterMessage("Handling request").FilterField(zap.String("request", "catalogapi.CreateWidget")).All()
	require.Len(t, handling, 1)
	fields := handling[0].ContextMap()
	assert.Equal(t, logger.CorrelationID(ctx), fields["correlation_id"])

	messages := make([]string, 0)
	for _, e := range h.logs.All() {
		if e.ContextMap()["request"] == "catalogapi.CreateWidget" || e.Message == "Widget created" {
			messages = append(messages, e.Message)
		}
	}
	assert.Equal(t, []string{"Handling request", "Widget created", "Request handled"}, messages)
}

func TestCreateWidget_AggregatesValidationFailures(t *testing.T) {
	h := newHarness(t, Options{})

	_, err := mediator.Send(caller("widgets.create"), h.app.Mediator, catalogapi.CreateWidget{Price: decimal.NewFromInt(1)})

	var ve *mediator.ValidationError
	require.ErrorAs(t, err, &ve)
	fields := make([]string, 0, len(ve.Failures))
	for _, f := range ve.Failures {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "category"}, fields)
	assert.Empty(t, h.logs.FilterMessage("Widget created").All(), "handler never runs")
}

func TestCreateWidget_StructTagsJoinRegisteredValidators(t *testing.T) {
	h := newHarness(t, Options{})

	_, err := mediator.Send(caller("widgets.create"), h.app.Mediator, catalogapi.CreateWidget{
		Name: "Sprocket", Price: decimal.NewFromInt(-5),
	})

	var ve *mediator.ValidationError
	require.ErrorAs(t, err, &ve)
	rules := map[string]string{}
	for _, f := range ve.Failures {
		rules[f.Field] = f.Rule
	}
	assert.Equal(t, map[string]string{"category": "required", "price": "gte"}, rules)
}

func TestCreateWidget_WithoutCapability(t *testing.T) {
	h := newHarness(t, Options{})

	_, err := mediator.Send(caller("widgets.read"), h.app.Mediator, catalogapi.CreateWidget{
		Name: "Sprocket", Category: "parts", Price: decimal.NewFromInt(1),
	})

	var ae *mediator.AuthorizationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "widgets.create", ae.Capability)
	assert.Empty(t, h.logs.FilterMessage("Widget created").All())
}

func TestCreateWidget_AnonymousCallerIsRejected(t *testing.T) {
	h := newHarness(t, Options{})

	_, err := mediator.Send(context.Background(), h.app.Mediator, catalogapi.CreateWidget{
		Name: "Sprocket", Category: "parts", Price: decimal.NewFromInt(1),
	})

	var ae *mediator.AuthorizationError
	assert.ErrorAs(t, err, &ae)
}

func TestDiscontinueWidget_FlagsDraftInvoicesInTheSameCommit(t *testing.T) {
	var delivered []shared.DomainEvent
	h := newHarness(t, Options{Extra: func(b *mediator.Builder) {
		b.Subscribe(shared.EventHandlerFunc(func(ctx context.Context, e shared.DomainEvent) error {
			delivered = append(delivered, e)
			return nil
		}), catalogapi.EventTypeWidgetDiscontinued, invoicingapi.EventTypeInvoiceFlaggedForReview)
	}})
	widget := h.createWidget(t, "Sprocket")
	other := h.createWidget(t, "Gear")
	draft := h.createInvoice(t, widget, other)
	untouched := h.createInvoice(t, other)

	_, err := mediator.Send(caller("widgets.discontinue"), h.app.Mediator, catalogapi.DiscontinueWidget{
		WidgetID: widget, Reason: "superseded",
	})
	require.NoError(t, err)

	require.Len(t, delivered, 2)
	assert.Equal(t, catalogapi.EventTypeWidgetDiscontinued, delivered[0].EventType())
	assert.Equal(t, widget, delivered[0].AggregateID())
	assert.Equal(t, invoicingapi.EventTypeInvoiceFlaggedForReview, delivered[1].EventType())
	assert.Equal(t, draft, delivered[1].AggregateID())

	ctx := context.Background()
	w, err := h.app.Catalog.GetWidget(ctx, widget)
	require.NoError(t, err)
	assert.Equal(t, catalogapi.WidgetStatusDiscontinued, w.Status)

	inv, err := h.app.Invoicing.GetInvoice(ctx, draft)
	require.NoError(t, err)
	assert.True(t, inv.NeedsReview)

	inv, err = h.app.Invoicing.GetInvoice(ctx, untouched)
	require.NoError(t, err)
	assert.False(t, inv.NeedsReview)
}

func TestDiscontinueWidget_SubscribersReadTheDiscontinuedWidget(t *testing.T) {
	var catalog catalogapi.API
	var seen catalogapi.WidgetDTO
	h := newHarness(t, Options{Extra: func(b *mediator.Builder) {
		mediator.RegisterNotificationHandler(b, catalogapi.EventTypeWidgetDiscontinued,
			func(ctx context.Context, e *catalogapi.WidgetDiscontinued) error {
				w, err := catalog.GetWidget(ctx, e.WidgetID)
				seen = w
				return err
			})
	}})
	catalog = h.app.Catalog
	widget := h.createWidget(t, "Sprocket")

	_, err := mediator.Send(caller("widgets.discontinue"), h.app.Mediator, catalogapi.DiscontinueWidget{
		WidgetID: widget, Reason: "superseded",
	})
	require.NoError(t, err)

	assert.Equal(t, catalogapi.WidgetStatusDiscontinued, seen.Status)
	assert.Equal(t, 2, seen.Version)
}

func TestDiscontinueWidget_FailingSubscriberRollsBackEverything(t *testing.T) {
	h := newHarness(t, Options{Extra: func(b *mediator.Builder) {
		mediator.RegisterNotificationHandler(b, catalogapi.EventTypeWidgetDiscontinued,
			func(ctx context.Context, e *catalogapi.WidgetDiscontinued) error {
				return errors.New("pricing feed unavailable")
			})
	}})
	widget := h.createWidget(t, "Sprocket")
	draft := h.createInvoice(t, widget)

	ctx := caller("widgets.discontinue")
	_, err := mediator.Send(ctx, h.app.Mediator, catalogapi.DiscontinueWidget{WidgetID: widget})

	var ie *mediator.InfrastructureError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, logger.CorrelationID(ctx), ie.CorrelationID)
	assert.NotContains(t, ie.Error(), "pricing feed unavailable")
	assert.Len(t, h.logs.FilterMessage("Request failed unexpectedly").All(), 1)

	w, err := h.app.Catalog.GetWidget(context.Background(), widget)
	require.NoError(t, err)
	assert.Equal(t, catalogapi.WidgetStatusActive, w.Status)
	assert.Equal(t, 1, w.Version)

	inv, err := h.app.Invoicing.GetInvoice(context.Background(), draft)
	require.NoError(t, err)
	assert.False(t, inv.NeedsReview, "the invoicing subscriber's changes roll back with the widget")
}

func TestSlowRequest_IsReported(t *testing.T) {
	h := newHarness(t, Options{
		SlowThreshold: 5 * time.Millisecond,
		Extra: func(b *mediator.Builder) {
			mediator.RegisterHandler(b, func(ctx context.Context, req slowProbe) (mediator.Void, error) {
				time.Sleep(20 * time.Millisecond)
				return mediator.Void{}, nil
			})
		},
	})

	_, err := mediator.Send(caller(), h.app.Mediator, slowProbe{})
	require.NoError(t, err)

	slow := h.logs.FilterMessage("Slow request").All()
	require.Len(t, slow, 1)
	assert.Equal(t, zapcore.WarnLevel, slow[0].Level)
	assert.Equal(t, "bootstrap.slowProbe", slow[0].ContextMap()["request"])
}

func TestIssueInvoice_BlockedUntilReviewed(t *testing.T) {
	h := newHarness(t, Options{})
	widget := h.createWidget(t, "Sprocket")
	draft := h.createInvoice(t, widget)

	_, err := mediator.Send(caller("widgets.discontinue"), h.app.Mediator, catalogapi.DiscontinueWidget{WidgetID: widget})
	require.NoError(t, err)

	_, err = mediator.Send(caller("invoices.issue"), h.app.Mediator, invoicingapi.IssueInvoice{InvoiceID: draft})

	assert.ErrorIs(t, err, invoicingapi.ErrInvoiceNeedsReview)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "NEEDS_REVIEW", de.Code)
}
