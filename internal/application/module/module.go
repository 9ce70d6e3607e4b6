// Package module describes business modules and assembles them into the
// mediator registration table.
package module

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/erp/modulith/internal/application/mediator"
	"gorm.io/gorm"
)

var (
	ErrInvalidModule        = errors.New("invalid module")
	ErrDuplicateModule      = errors.New("module already registered")
	ErrUndeclaredNamespace  = errors.New("capability outside the module's namespaces")
	ErrUndeclaredCapability = errors.New("request requires a capability the module does not declare")
)

// Descriptor is the static description of a module.
type Descriptor struct {
	Name string
	// Namespaces are the capability prefixes the module owns, e.g. "widgets".
	Namespaces []string
	// Capabilities are the capabilities the module's requests require, e.g. "widgets.create".
	Capabilities []string
	// Requests are zero values of every request type the module serves. Each
	// must have a handler once all modules are registered.
	Requests []any
}

// Module is a business module: it owns its tables and registers its handlers,
// validators and notification handlers into the mediator.
type Module interface {
	Descriptor() Descriptor
	Register(b *mediator.Builder)
	Migrate(ctx context.Context, db *gorm.DB) error
}

// Registry holds the modules of the process in registration order.
// It is read-only after NewRegistry returns.
type Registry struct {
	modules []Module
	byName  map[string]Module
}

// NewRegistry validates the modules and returns the registry. Every problem
// found is reported.
func NewRegistry(modules ...Module) (*Registry, error) {
	r := &Registry{byName: make(map[string]Module, len(modules))}
	var errs []error
	for i, m := range modules {
		if m == nil {
			errs = append(errs, fmt.Errorf("%w: module #%d is nil", ErrInvalidModule, i))
			continue
		}
		d := m.Descriptor()
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("%w: module #%d has no name", ErrInvalidModule, i))
			continue
		}
		if _, exists := r.byName[d.Name]; exists {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateModule, d.Name))
			continue
		}
		errs = append(errs, checkDescriptor(d)...)
		r.byName[d.Name] = m
		r.modules = append(r.modules, m)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

func checkDescriptor(d Descriptor) []error {
	var errs []error
	for _, c := range d.Capabilities {
		ns, action, ok := strings.Cut(c, ".")
		if !ok || action == "" || !slices.Contains(d.Namespaces, ns) {
			errs = append(errs, fmt.Errorf("%w: module %q declares %q (namespaces %v)",
				ErrUndeclaredNamespace, d.Name, c, d.Namespaces))
		}
	}
	for _, req := range d.Requests {
		secured, ok := req.(mediator.Secured)
		if !ok {
			continue
		}
		if c := secured.RequiredCapability(); !slices.Contains(d.Capabilities, c) {
			errs = append(errs, fmt.Errorf("%w: module %q, %s requires %q",
				ErrUndeclaredCapability, d.Name, mediator.RequestName(req), c))
		}
	}
	return errs
}

// Names returns the module names in registration order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for _, m := range r.modules {
		names = append(names, m.Descriptor().Name)
	}
	return names
}

// Capabilities returns every capability declared by any module, sorted
func (r *Registry) Capabilities() []string {
	var caps []string
	for _, m := range r.modules {
		caps = append(caps, m.Descriptor().Capabilities...)
	}
	slices.Sort(caps)
	return slices.Compact(caps)
}

// Register lets every module register into b, attributing each registration
// to its module, and declares the modules' request types as required.
func (r *Registry) Register(b *mediator.Builder) {
	for _, m := range r.modules {
		d := m.Descriptor()
		restore := b.ForModule(d.Name)
		b.Require(d.Requests...)
		m.Register(b)
		restore()
	}
}

// Migrate migrates the tables of every module in registration order
func (r *Registry) Migrate(ctx context.Context, db *gorm.DB) error {
	for _, m := range r.modules {
		if err := m.Migrate(ctx, db); err != nil {
			return fmt.Errorf("failed to migrate module %s: %w", m.Descriptor().Name, err)
		}
	}
	return nil
}
