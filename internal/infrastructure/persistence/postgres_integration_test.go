//go:build integration

package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/application/uow"
	"github.com/erp/modulith/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// newPostgresDatabase starts a throwaway PostgreSQL container and connects to it.
func newPostgresDatabase(t *testing.T) *Database {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("modulith_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:       "postgres",
		Host:         host,
		Port:         port.Int(),
		User:         "postgres",
		Password:     "postgres",
		DBName:       "modulith_test",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		LogLevel:     "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.DB.AutoMigrate(&gadget{}, &auditEntry{}))
	return db
}

func TestPostgres_UnitOfWorkCommitAndRollback(t *testing.T) {
	db := newPostgresDatabase(t)
	boom := errors.New("subscriber failed")
	fail := false
	factory := newTestFactory(t, db, func(b *mediator.Builder) {
		mediator.RegisterNotificationHandler(b, "GadgetRenamed", func(ctx context.Context, e *gadgetRenamed) error {
			if err := Conn(ctx, db.DB).Create(&auditEntry{ID: uuid.New(), GadgetID: e.AggregateID(), Note: e.Name}).Error; err != nil {
				return err
			}
			if fail {
				return boom
			}
			return nil
		})
	})

	g := newGadget("draft")
	require.NoError(t, uow.Run(context.Background(), factory, func(ctx context.Context, u uow.UnitOfWork) error {
		g.Rename("committed")
		return u.Attach(g)
	}))
	assert.Equal(t, "committed", loadGadget(t, db, g.ID).Name)

	fail = true
	err := uow.Run(context.Background(), factory, func(ctx context.Context, u uow.UnitOfWork) error {
		reloaded := loadGadget(t, db, g.ID)
		reloaded.Rename("discarded")
		return u.Attach(&reloaded)
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, "committed", loadGadget(t, db, g.ID).Name)
	var count int64
	require.NoError(t, db.DB.Model(&auditEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
