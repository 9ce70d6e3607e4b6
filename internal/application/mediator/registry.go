package mediator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/erp/modulith/internal/domain/shared"
)

// Validator checks a request and returns every broken rule. An empty result means valid.
type Validator interface {
	Validate(ctx context.Context, req any) []ValidationFailure
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, req any) []ValidationFailure

// Validate implements Validator
func (f ValidatorFunc) Validate(ctx context.Context, req any) []ValidationFailure {
	return f(ctx, req)
}

type handlerEntry struct {
	name   string
	module string
	invoke HandlerFunc
}

type requirement struct {
	module string
	typ    reflect.Type
}

// Builder collects handler, validator and notification registrations at startup.
// Build validates the table and freezes it into a Registry.
type Builder struct {
	handlers      map[reflect.Type]handlerEntry
	validators    map[reflect.Type][]Validator
	notifications map[string][]shared.EventHandler
	wildcard      []shared.EventHandler
	required      []requirement
	module        string
	errs          []error
	built         bool
}

// NewBuilder creates an empty registration table
func NewBuilder() *Builder {
	return &Builder{
		handlers:      make(map[reflect.Type]handlerEntry),
		validators:    make(map[reflect.Type][]Validator),
		notifications: make(map[string][]shared.EventHandler),
	}
}

// ForModule returns the module name attached to subsequent registrations and a
// function restoring the previous one.
func (b *Builder) ForModule(name string) (restore func()) {
	prev := b.module
	b.module = name
	return func() { b.module = prev }
}

// Require declares request types that must have a handler when Build runs.
// Pass zero values of the request types.
func (b *Builder) Require(prototypes ...any) {
	b.mustBeOpen()
	for _, p := range prototypes {
		b.required = append(b.required, requirement{module: b.module, typ: reflect.TypeOf(p)})
	}
}

// RegisterHandler binds fn as the only handler for requests of type Req.
// A second registration for the same type is reported by Build.
func RegisterHandler[Req Request[Res], Res any](b *Builder, fn func(ctx context.Context, req Req) (Res, error)) {
	b.mustBeOpen()
	typ := reflect.TypeFor[Req]()
	if existing, ok := b.handlers[typ]; ok {
		b.errs = append(b.errs, &ConfigurationError{
			RequestType: typ.String(),
			Err:         fmt.Errorf("%w (modules %q and %q)", ErrDuplicateHandler, existing.module, b.module),
		})
		return
	}
	b.handlers[typ] = handlerEntry{
		name:   typ.String(),
		module: b.module,
		invoke: func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(Req)
			if !ok {
				return nil, fmt.Errorf("handler for %s received %T", typ, req)
			}
			res, err := fn(ctx, typed)
			return res, err
		},
	}
}

// RegisterValidator adds a validator for requests of type Req. Every validator
// registered for a type runs and their failures are merged.
func RegisterValidator[Req any](b *Builder, fn func(ctx context.Context, req Req) []ValidationFailure) {
	b.mustBeOpen()
	typ := reflect.TypeFor[Req]()
	b.validators[typ] = append(b.validators[typ], ValidatorFunc(func(ctx context.Context, req any) []ValidationFailure {
		typed, ok := req.(Req)
		if !ok {
			return nil
		}
		return fn(ctx, typed)
	}))
}

// Subscribe registers a notification handler for the given event types. With no
// event types, the handler's own EventTypes are used; an empty list there means all events.
func (b *Builder) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	b.mustBeOpen()
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	if len(eventTypes) == 0 {
		b.wildcard = append(b.wildcard, handler)
		return
	}
	for _, eventType := range eventTypes {
		b.notifications[eventType] = append(b.notifications[eventType], handler)
	}
}

// RegisterNotificationHandler subscribes a typed function to one event type.
func RegisterNotificationHandler[E shared.DomainEvent](b *Builder, eventType string, fn func(ctx context.Context, event E) error) {
	b.Subscribe(&typedEventHandler[E]{eventType: eventType, fn: fn}, eventType)
}

type typedEventHandler[E shared.DomainEvent] struct {
	eventType string
	fn        func(ctx context.Context, event E) error
}

func (h *typedEventHandler[E]) EventTypes() []string { return []string{h.eventType} }

func (h *typedEventHandler[E]) Handle(ctx context.Context, event shared.DomainEvent) error {
	typed, ok := event.(E)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s as %s, got %T", h.eventType, reflect.TypeFor[E](), event)
	}
	return h.fn(ctx, typed)
}

// Build checks the registrations and returns the read-only registry. Duplicate
// handlers and required requests without a handler are reported together.
func (b *Builder) Build() (*Registry, error) {
	b.mustBeOpen()

	errs := append([]error(nil), b.errs...)
	for _, req := range b.required {
		if _, ok := b.handlers[req.typ]; !ok {
			errs = append(errs, &ConfigurationError{
				RequestType: req.typ.String(),
				Err:         fmt.Errorf("%w (declared by module %q)", ErrHandlerNotFound, req.module),
			})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	b.built = true
	return &Registry{
		handlers:      b.handlers,
		validators:    b.validators,
		notifications: b.notifications,
		wildcard:      b.wildcard,
	}, nil
}

func (b *Builder) mustBeOpen() {
	if b.built {
		panic(ErrRegistryBuilt)
	}
}

// Registry is the frozen registration table. It is never mutated after Build,
// so lookups take no lock.
type Registry struct {
	handlers      map[reflect.Type]handlerEntry
	validators    map[reflect.Type][]Validator
	notifications map[string][]shared.EventHandler
	wildcard      []shared.EventHandler
}

func (r *Registry) handler(req any) (handlerEntry, bool) {
	entry, ok := r.handlers[reflect.TypeOf(req)]
	return entry, ok
}

// HasHandler reports whether a handler is registered for the request's type.
func (r *Registry) HasHandler(req any) bool {
	_, ok := r.handler(req)
	return ok
}

// Validators returns the validators registered for the request's type.
func (r *Registry) Validators(req any) []Validator {
	return r.validators[reflect.TypeOf(req)]
}

// NotificationHandlers returns the type-specific handlers followed by the wildcard handlers.
func (r *Registry) NotificationHandlers(eventType string) []shared.EventHandler {
	typed := r.notifications[eventType]
	if len(r.wildcard) == 0 {
		return typed
	}
	result := make([]shared.EventHandler, 0, len(typed)+len(r.wildcard))
	result = append(result, typed...)
	return append(result, r.wildcard...)
}

// RequestTypes lists the registered request type names, sorted.
func (r *Registry) RequestTypes() []string {
	names := make([]string, 0, len(r.handlers))
	for _, entry := range r.handlers {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}
