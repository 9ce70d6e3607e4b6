package persistence

import (
	"context"
	"fmt"

	"github.com/erp/modulith/internal/application/uow"
	"github.com/erp/modulith/internal/domain/shared"
	"gorm.io/gorm"
)

type txKey struct{}

// Conn returns the transaction of the unit of work in ctx, or db when there is
// none. Stores use it for every statement so that notification handlers write
// inside the transaction of the commit that published the event.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// UnitOfWorkFactory begins GORM-backed units of work
type UnitOfWorkFactory struct {
	db         *gorm.DB
	dispatcher *uow.EventDispatcher
}

// NewUnitOfWorkFactory creates a factory whose units of work publish through dispatcher
func NewUnitOfWorkFactory(db *gorm.DB, dispatcher *uow.EventDispatcher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db, dispatcher: dispatcher}
}

// Begin implements uow.Factory. The transaction lives until Commit or Rollback.
func (f *UnitOfWorkFactory) Begin(ctx context.Context) (context.Context, uow.UnitOfWork, error) {
	tx := f.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return ctx, nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	u := &GormUnitOfWork{store: gormStore{tx: tx}, dispatcher: f.dispatcher}
	ctx = context.WithValue(uow.WithUnitOfWork(ctx, u), txKey{}, tx)
	return ctx, u, nil
}

// GormUnitOfWork is a unit of work over one GORM transaction
type GormUnitOfWork struct {
	uow.Tracker
	store      gormStore
	dispatcher *uow.EventDispatcher
}

// Commit implements uow.UnitOfWork
func (u *GormUnitOfWork) Commit(ctx context.Context) error {
	return u.dispatcher.Commit(ctx, u, &u.Tracker, u.store)
}

// Rollback implements uow.UnitOfWork
func (u *GormUnitOfWork) Rollback(ctx context.Context) error {
	return u.dispatcher.Rollback(ctx, &u.Tracker, u.store)
}

type gormStore struct {
	tx *gorm.DB
}

func (s gormStore) Bind(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, s.tx)
}

func (s gormStore) Persist(ctx context.Context, aggregates []shared.AggregateRoot) error {
	for _, agg := range aggregates {
		if err := s.tx.WithContext(ctx).Save(agg).Error; err != nil {
			return fmt.Errorf("failed to save %T %s: %w", agg, agg.GetID(), err)
		}
	}
	return nil
}

func (s gormStore) Commit() error {
	return s.tx.Commit().Error
}

func (s gormStore) Rollback() error {
	return s.tx.Rollback().Error
}

var (
	_ uow.Factory    = (*UnitOfWorkFactory)(nil)
	_ uow.UnitOfWork = (*GormUnitOfWork)(nil)
	_ uow.Store      = gormStore{}
)
