package services

import (
	"context"
	"errors"
	"testing"
	"tripsplit-backend/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockFxRateStore(t *testing.T) (*FxRateStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewFxRateStore(gormDB, nil), mock
}

const lastRateQuery = `SELECT \* FROM "spends" WHERE \(trip_id = \$1 AND currency = \$2 AND fx_rate > 0\)`

func TestFxRateStore_Resolve(t *testing.T) {
	ctx := context.Background()
	tripID := uuid.New()

	t.Run("base currency needs no rate", func(t *testing.T) {
		store, mock := newMockFxRateStore(t)
		rate, err := store.Resolve(ctx, tripID, "usd", "USD", nil)
		require.NoError(t, err)
		assert.True(t, rate.Equal(d("1")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("explicit rate wins", func(t *testing.T) {
		store, mock := newMockFxRateStore(t)
		explicit := d("0.92")
		rate, err := store.Resolve(ctx, tripID, "EUR", "USD", &explicit)
		require.NoError(t, err)
		assert.True(t, rate.Equal(explicit))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("explicit rate must be positive", func(t *testing.T) {
		store, _ := newMockFxRateStore(t)
		zero := d("0")
		_, err := store.Resolve(ctx, tripID, "EUR", "USD", &zero)
		assert.ErrorIs(t, err, utils.ErrValidation)
	})

	t.Run("falls back to the last spend in that currency", func(t *testing.T) {
		store, mock := newMockFxRateStore(t)
		rows := sqlmock.NewRows([]string{"id", "trip_id", "currency", "fx_rate"}).
			AddRow(uuid.New(), tripID, "EUR", "1.0875")
		mock.ExpectQuery(lastRateQuery).WillReturnRows(rows)

		rate, err := store.Resolve(ctx, tripID, "eur", "USD", nil)
		require.NoError(t, err)
		assert.True(t, rate.Equal(d("1.0875")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no history is a validation error", func(t *testing.T) {
		store, mock := newMockFxRateStore(t)
		mock.ExpectQuery(lastRateQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := store.Resolve(ctx, tripID, "GBP", "USD", nil)
		assert.ErrorIs(t, err, utils.ErrValidation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database failures are not validation errors", func(t *testing.T) {
		store, mock := newMockFxRateStore(t)
		mock.ExpectQuery(lastRateQuery).WillReturnError(errors.New("connection reset"))

		_, err := store.Resolve(ctx, tripID, "GBP", "USD", nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, utils.ErrValidation)
		assert.Contains(t, err.Error(), "connection reset")
	})
}
