// Package store reads catalog aggregates. Writes go through the unit of work,
// and a widget the unit of work in ctx already tracks is returned as tracked.
package store

import (
	"context"
	"errors"

	"github.com/erp/modulith/internal/application/uow"
	"github.com/erp/modulith/internal/infrastructure/persistence"
	"github.com/erp/modulith/internal/modules/catalog/catalogapi"
	"github.com/erp/modulith/internal/modules/catalog/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WidgetStore loads widgets, inside the unit of work of ctx when there is one
type WidgetStore struct {
	db *gorm.DB
}

// NewWidgetStore creates a new WidgetStore
func NewWidgetStore(db *gorm.DB) *WidgetStore {
	return &WidgetStore{db: db}
}

// FindByID finds a widget by its ID
func (s *WidgetStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Widget, error) {
	var w domain.Widget
	if err := persistence.Conn(ctx, s.db).First(&w, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalogapi.ErrWidgetNotFound
		}
		return nil, err
	}
	return uow.Resolve(ctx, &w), nil
}

// FindByCategory lists the widgets of a category ordered by name
func (s *WidgetStore) FindByCategory(ctx context.Context, category string) ([]domain.Widget, error) {
	var widgets []domain.Widget
	err := persistence.Conn(ctx, s.db).
		Where("category = ?", category).
		Order("name ASC").
		Find(&widgets).Error
	return widgets, err
}

// Migrate creates or updates the catalog tables
func (s *WidgetStore) Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(&domain.Widget{})
}
